package editor

import "fmt"

// OpKind names a batch operation.
type OpKind string

const (
	OpAdd    OpKind = "add"
	OpEdit   OpKind = "edit"
	OpDelete OpKind = "delete"
)

// Op is one step of a batch edit. Index is ignored by add; Value by delete.
type Op struct {
	Kind  OpKind `json:"op"`
	Index int    `json:"index"`
	Value string `json:"value"`
}

// Apply runs ops in order against a copy of the list. Either every op
// succeeds and the editor takes the result, or the editor is left unchanged.
func (e *SymptomEditor) Apply(ops []Op) error {
	draft := &SymptomEditor{editing: -1}
	draft.sync(e.cloneItems())

	for i, op := range ops {
		if err := draft.apply(op); err != nil {
			return fmt.Errorf("op %d (%s): %w", i, op.Kind, err)
		}
	}

	e.editing = -1
	e.sync(draft.items)
	return nil
}

func (e *SymptomEditor) apply(op Op) error {
	switch op.Kind {
	case OpAdd:
		return e.Add(op.Value)
	case OpEdit:
		if _, err := e.StartEdit(op.Index); err != nil {
			return err
		}
		if err := e.SaveEdit(op.Value); err != nil {
			e.CancelEdit()
			return err
		}
		return nil
	case OpDelete:
		return e.Delete(op.Index)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOp, op.Kind)
	}
}
