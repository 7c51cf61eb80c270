package lsf

import "container/heap"

// huffmanNode is one node of the arena-backed Huffman tree: leaves hold a
// symbol, internal nodes hold two children and the branching probability
// of the pair. Indices into huffmanCoder.tree stand in for pointers so the
// tree has no cycles to manage.
//
// By construction (see build), a node's "minor" child (the one with the
// smaller or equal probability mass at merge time — always the rarer
// branch) is always physically reached by bitAtParent==false, and the
// "major"/predicted child always by bitAtParent==true. That makes the
// coder's flip flag a module-wide constant rather than a per-node value:
// the logical bit the shared Coder convention wants (0==predicted,
// 1==rarer) is always the physical bit inverted.
type huffmanNode struct {
	minor, major int // tree indices of the rarer/predicted children; -1 for leaves
	parent       int // tree index; -1 for the root
	relProb      float64
	symbol       Symbol
	leaf         bool
}

// huffmanCoder implements Coder by repeatedly merging the two
// lowest-probability nodes, tie-broken by insertion order, each internal
// node storing min(ratio, 1-ratio) as its branching probability.
type huffmanCoder struct {
	tree []huffmanNode
	root int

	cur          int
	lastPhysical bool
	encodeSymbol *Symbol
}

func newHuffmanCoder(p []float64, encodeSymbol *Symbol) Coder {
	c := &huffmanCoder{encodeSymbol: encodeSymbol}
	c.build(p)
	c.cur = c.root
	return c
}

// huffmanHeapItem is one entry in the merge priority queue: a tree index
// plus its probability mass, with ties broken by insertion order (not by
// probability) so the tree is canonical regardless of floating-point
// comparison order.
type huffmanHeapItem struct {
	treeIdx int
	p       float64
	seq     int
}

type huffmanHeap []huffmanHeapItem

func (h huffmanHeap) Len() int { return len(h) }
func (h huffmanHeap) Less(i, j int) bool {
	if h[i].p != h[j].p {
		return h[i].p < h[j].p
	}
	return h[i].seq < h[j].seq
}
func (h huffmanHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *huffmanHeap) Push(x any)   { *h = append(*h, x.(huffmanHeapItem)) }
func (h *huffmanHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// build constructs the arena tree by repeatedly merging the two
// lowest-probability nodes, as in classic Huffman coding, using a
// min-heap keyed by probability mass with insertion order as the
// tiebreak.
func (c *huffmanCoder) build(p []float64) {
	n := len(p)
	c.tree = make([]huffmanNode, 0, 2*n)
	h := make(huffmanHeap, 0, n)
	seq := 0
	for i, prob := range p {
		idx := len(c.tree)
		c.tree = append(c.tree, huffmanNode{minor: -1, major: -1, parent: -1, leaf: true, symbol: Symbol(i)})
		h = append(h, huffmanHeapItem{treeIdx: idx, p: prob, seq: seq})
		seq++
	}
	heap.Init(&h)

	if n == 1 {
		c.root = 0
		return
	}

	for len(h) > 1 {
		minor := heap.Pop(&h).(huffmanHeapItem) // smaller (or tied, earlier) mass
		major := heap.Pop(&h).(huffmanHeapItem)

		sum := minor.p + major.p
		relProb := 0.5
		if sum > 0 {
			relProb = minor.p / sum
			if relProb > 0.5 {
				relProb = 0.5 // only possible if both are exactly equal
			}
		}

		parentIdx := len(c.tree)
		c.tree[minor.treeIdx].parent = parentIdx
		c.tree[major.treeIdx].parent = parentIdx
		c.tree = append(c.tree, huffmanNode{
			minor: minor.treeIdx, major: major.treeIdx, parent: -1,
			relProb: relProb, leaf: false,
		})
		heap.Push(&h, huffmanHeapItem{treeIdx: parentIdx, p: sum, seq: seq})
		seq++
	}
	c.root = h[0].treeIdx
}

func (c *huffmanCoder) RelProbabilityAndAdvance() float64 {
	return clampProbability(c.tree[c.cur].relProb)
}

func (c *huffmanCoder) HasFinished() bool {
	return c.tree[c.cur].leaf
}

// NextEncodeBit walks toward the encode-mode target symbol's leaf: it
// finds which immediate child of the current node is an ancestor of (or
// is) that leaf, and descends there.
func (c *huffmanCoder) NextEncodeBit() {
	leaf := int(*c.encodeSymbol)
	node := leaf
	for c.tree[node].parent != c.cur {
		node = c.tree[node].parent
	}
	physical := node == c.tree[c.cur].major
	c.descend(physical)
}

// NextBit descends according to the logical bit (0=predicted/major,
// 1=rarer/minor), translating to the physical child via the constant flip
// described on huffmanNode.
func (c *huffmanCoder) NextBit(bit bool) {
	c.descend(!bit)
}

func (c *huffmanCoder) descend(physicalMajor bool) {
	node := &c.tree[c.cur]
	c.lastPhysical = physicalMajor
	if physicalMajor {
		c.cur = node.major
	} else {
		c.cur = node.minor
	}
}

// Bit reports the logical bit of the last descent: false (0) for the
// major/predicted branch, true (1) for the minor/rarer branch.
func (c *huffmanCoder) Bit() bool {
	return !c.lastPhysical
}

func (c *huffmanCoder) Result() Symbol {
	return c.tree[c.cur].symbol
}
