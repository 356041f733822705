package sched

import "sort"

// Block describes a homogeneous group of concurrently scheduled molecule
// slots. Every slot in the block runs one molecule task and reserves
// CoresPerSlot cores for its full duration.
//
// Blocks are computed once before scheduling begins and are immutable; the
// slot counts across a plan sum to the requested molecule count, and
// SlotCount*CoresPerSlot never exceeds the total core budget.
type Block struct {
	SlotCount    int
	CoresPerSlot int
}

// PlanBlocks partitions totalCores into an ordered sequence of blocks
// covering numMolecules slots.
//
// The plan first emits as many fully parallel blocks as possible (maxSlots
// slots of totalCores/maxSlots cores, where maxSlots respects the
// minCoresPerSlot floor). Leftover molecules are grouped into blocks whose
// slot count is the largest value below maxSlots that divides totalCores
// evenly, so no cores idle within a block. Any final remainder gets the full
// budget per slot. Blocks are returned in ascending CoresPerSlot order so
// narrow, highly parallel blocks dispatch first.
func PlanBlocks(totalCores, numMolecules, minCoresPerSlot int) []Block {
	maxSlots := totalCores / minCoresPerSlot
	if maxSlots < 1 {
		maxSlots = 1
	}

	var blocks []Block
	left := numMolecules

	// Fully parallel rounds.
	if left >= maxSlots {
		rounds := left / maxSlots
		for i := 0; i < rounds; i++ {
			blocks = append(blocks, Block{SlotCount: maxSlots, CoresPerSlot: totalCores / maxSlots})
		}
		left -= rounds * maxSlots
	}

	// Fill the tail with the widest slot count that divides the budget.
	// j=1 always qualifies, so this loop drains the remainder whenever
	// maxSlots > 1.
	for left >= 1 {
		p := 0
		for j := 1; j < maxSlots; j++ {
			if totalCores%j == 0 && j <= left {
				p = j
			}
		}
		if p == 0 {
			break
		}
		rounds := left / p
		for i := 0; i < rounds; i++ {
			blocks = append(blocks, Block{SlotCount: p, CoresPerSlot: totalCores / p})
		}
		left -= rounds * p
	}

	// Remainder smaller than any achievable slot count: run sequentially,
	// each slot with the full budget.
	if left > 0 {
		blocks = append(blocks, Block{SlotCount: left, CoresPerSlot: totalCores})
	}

	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].CoresPerSlot < blocks[j].CoresPerSlot
	})
	return blocks
}
