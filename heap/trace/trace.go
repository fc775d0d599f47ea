package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var (
	// ErrSyntax indicates a malformed trace line.
	ErrSyntax = errors.New("trace: syntax error")

	// ErrInvalidOp indicates an operation on an id that is out of range or
	// not in the state the operation requires.
	ErrInvalidOp = errors.New("trace: invalid operation")
)

// MaxIDs bounds the id count a trace header may declare.
const MaxIDs = 1 << 20

// maxPrealloc caps how many ops Parse reserves up front from the header count.
const maxPrealloc = 1 << 16

// Kind identifies a trace operation.
type Kind byte

const (
	Alloc   Kind = 'a'
	Realloc Kind = 'r'
	Free    Kind = 'f'
)

func (k Kind) String() string {
	switch k {
	case Alloc:
		return "alloc"
	case Realloc:
		return "realloc"
	case Free:
		return "free"
	default:
		return fmt.Sprintf("Kind(%q)", byte(k))
	}
}

// Op is one trace operation. Size is ignored for Free.
type Op struct {
	Kind Kind
	ID   int
	Size int
}

// Trace is a parsed trace file.
type Trace struct {
	SuggestedHeap int // informational, from the header
	NumIDs        int
	Weight        int
	Ops           []Op
}

// Parse reads a trace. Blank lines are skipped. The header's op count must
// match the number of operations that follow.
func Parse(r io.Reader) (*Trace, error) {
	sc := bufio.NewScanner(r)
	line := 0

	next := func() ([]string, bool) {
		for sc.Scan() {
			line++
			if f := strings.Fields(sc.Text()); len(f) > 0 {
				return f, true
			}
		}
		return nil, false
	}

	var header [4]int
	for i := range header {
		f, ok := next()
		if !ok {
			if err := sc.Err(); err != nil {
				return nil, fmt.Errorf("trace: read: %w", err)
			}
			return nil, fmt.Errorf("%w: header truncated after %d fields", ErrSyntax, i)
		}
		if len(f) != 1 {
			return nil, fmt.Errorf("%w: line %d: header expects one number", ErrSyntax, line)
		}
		v, err := strconv.Atoi(f[0])
		if err != nil || v < 0 {
			return nil, fmt.Errorf("%w: line %d: bad header value %q", ErrSyntax, line, f[0])
		}
		header[i] = v
	}
	if header[1] > MaxIDs {
		return nil, fmt.Errorf("%w: %d ids exceeds limit %d", ErrSyntax, header[1], MaxIDs)
	}

	tr := &Trace{
		SuggestedHeap: header[0],
		NumIDs:        header[1],
		Weight:        header[3],
		Ops:           make([]Op, 0, min(header[2], maxPrealloc)),
	}

	for {
		f, ok := next()
		if !ok {
			break
		}
		op, err := parseOp(f)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrSyntax, line, err)
		}
		if op.ID >= tr.NumIDs {
			return nil, fmt.Errorf("%w: line %d: id %d out of range [0, %d)", ErrInvalidOp, line, op.ID, tr.NumIDs)
		}
		tr.Ops = append(tr.Ops, op)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("trace: read: %w", err)
	}
	if len(tr.Ops) != header[2] {
		return nil, fmt.Errorf("%w: header says %d ops, found %d", ErrSyntax, header[2], len(tr.Ops))
	}
	return tr, nil
}

func parseOp(f []string) (Op, error) {
	if len(f[0]) != 1 {
		return Op{}, fmt.Errorf("unknown op %q", f[0])
	}
	op := Op{Kind: Kind(f[0][0])}

	want := 3
	switch op.Kind {
	case Alloc, Realloc:
	case Free:
		want = 2
	default:
		return Op{}, fmt.Errorf("unknown op %q", f[0])
	}
	if len(f) != want {
		return Op{}, fmt.Errorf("%s takes %d fields, got %d", op.Kind, want, len(f))
	}

	id, err := strconv.Atoi(f[1])
	if err != nil || id < 0 {
		return Op{}, fmt.Errorf("bad id %q", f[1])
	}
	op.ID = id
	if want == 3 {
		size, err := strconv.Atoi(f[2])
		if err != nil || size < 0 {
			return Op{}, fmt.Errorf("bad size %q", f[2])
		}
		op.Size = size
	}
	return op, nil
}

// Write emits the trace in the format Parse reads.
func (tr *Trace) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d\n%d\n%d\n%d\n", tr.SuggestedHeap, tr.NumIDs, len(tr.Ops), tr.Weight)
	for _, op := range tr.Ops {
		if op.Kind == Free {
			fmt.Fprintf(bw, "%c %d\n", op.Kind, op.ID)
			continue
		}
		fmt.Fprintf(bw, "%c %d %d\n", op.Kind, op.ID, op.Size)
	}
	return bw.Flush()
}

// Validate checks that every op is legal for the state of its id: allocs
// target unbound ids, reallocs and frees target bound ids.
func (tr *Trace) Validate() error {
	if tr.NumIDs < 0 || tr.NumIDs > MaxIDs {
		return fmt.Errorf("%w: id count %d outside [0, %d]", ErrInvalidOp, tr.NumIDs, MaxIDs)
	}
	bound := make([]bool, tr.NumIDs)
	for i, op := range tr.Ops {
		if op.ID < 0 || op.ID >= tr.NumIDs {
			return fmt.Errorf("%w: op %d: id %d out of range", ErrInvalidOp, i, op.ID)
		}
		switch op.Kind {
		case Alloc:
			if bound[op.ID] {
				return fmt.Errorf("%w: op %d: alloc of live id %d", ErrInvalidOp, i, op.ID)
			}
			bound[op.ID] = true
		case Realloc, Free:
			if !bound[op.ID] {
				return fmt.Errorf("%w: op %d: %s of unbound id %d", ErrInvalidOp, i, op.Kind, op.ID)
			}
			if op.Kind == Free {
				bound[op.ID] = false
			}
		default:
			return fmt.Errorf("%w: op %d: unknown kind %v", ErrInvalidOp, i, op.Kind)
		}
	}
	return nil
}
