package prefixcode

import (
	"fmt"

	"github.com/deepteams/rawcodec/internal/bitio"
)

// treeNode is one arena-backed node of the binary prefix tree. Children
// are arena indices; 0 marks an absent branch (the root occupies
// index 0 and is never a child).
type treeNode struct {
	children [2]int32
	value    uint32
	leaf     bool
}

// TreeDecoder walks a binary tree indexed MSB-first by the bits of the
// symbol; leaves carry the code value. The tree is stored in a single
// node arena rather than as linked heap nodes.
type TreeDecoder struct {
	transcoderState
	nodes []treeNode
}

// NewTreeDecoder creates a tree decoder for code.
func NewTreeDecoder(code Code) *TreeDecoder {
	return &TreeDecoder{transcoderState: transcoderState{code: code}}
}

// Setup builds the tree. See Decoder.Setup.
func (d *TreeDecoder) Setup(fullDecode, fixDNGBug16 bool) error {
	if err := d.setup(fullDecode, fixDNGBug16); err != nil {
		return err
	}
	d.nodes = d.nodes[:0]
	d.nodes = append(d.nodes, treeNode{}) // root
	for i, sym := range d.code.Symbols {
		d.add(sym, d.code.CodeValues[i])
	}
	return nil
}

// add inserts one symbol. The code has been validated prefix-free, so
// the walk can never run through a leaf.
func (d *TreeDecoder) add(sym CodeSymbol, value uint32) {
	cur := int32(0)
	for i := sym.Len - 1; i >= 0; i-- {
		bit := sym.Code >> uint(i) & 1
		next := d.nodes[cur].children[bit]
		if next == 0 {
			d.nodes = append(d.nodes, treeNode{})
			next = int32(len(d.nodes) - 1)
			d.nodes[cur].children[bit] = next
		}
		cur = next
	}
	d.nodes[cur].value = value
	d.nodes[cur].leaf = true
}

func (d *TreeDecoder) state() *transcoderState { return &d.transcoderState }

// walk advances one bit from the node at index cur. It returns the next
// index and whether that node is a leaf.
func (d *TreeDecoder) walk(cur int32, bit uint32) (int32, bool, error) {
	next := d.nodes[cur].children[bit]
	if next == 0 {
		return 0, false, fmt.Errorf("%w: missing branch", ErrBadCode)
	}
	return next, d.nodes[next].leaf, nil
}

func (d *TreeDecoder) finishReadingPartialSymbol(bs bitio.Reader, initial CodeSymbol) (CodeSymbol, uint32, error) {
	var partial CodeSymbol
	cur := int32(0)

	// First, translate the pre-existing code bits, MSB first.
	for i := initial.Len - 1; i >= 0; i-- {
		bit := initial.Code >> uint(i) & 1
		partial.Code = partial.Code<<1 | bit
		partial.Len++
		next, leaf, err := d.walk(cur, bit)
		if err != nil {
			return CodeSymbol{}, 0, err
		}
		if leaf {
			return partial, d.nodes[next].value, nil
		}
		cur = next
	}

	// Then read bits until the walk hits a leaf or a missing branch.
	for {
		bit := bs.GetBitsNoFill(1)
		partial.Code = partial.Code<<1 | bit
		partial.Len++
		next, leaf, err := d.walk(cur, bit)
		if err != nil {
			return CodeSymbol{}, 0, err
		}
		if leaf {
			return partial, d.nodes[next].value, nil
		}
		cur = next
	}
}

func (d *TreeDecoder) readSymbol(bs bitio.Reader) (CodeSymbol, uint32, error) {
	return d.finishReadingPartialSymbol(bs, CodeSymbol{})
}

// DecodeCodeValue implements Decoder.
func (d *TreeDecoder) DecodeCodeValue(bs bitio.Reader) (uint32, error) {
	if err := bs.Fill(bitio.MaxGetBits); err != nil {
		return 0, err
	}
	_, codeValue, err := d.readSymbol(bs)
	return codeValue, err
}

// DecodeDifference implements Decoder.
func (d *TreeDecoder) DecodeDifference(bs bitio.Reader) (int32, error) {
	if err := bs.Fill(bitio.MaxGetBits); err != nil {
		return 0, err
	}
	_, codeValue, err := d.readSymbol(bs)
	if err != nil {
		return 0, err
	}
	return d.processDifference(bs, codeValue), nil
}
