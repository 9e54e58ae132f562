package script

import (
	"bytes"
	"fmt"

	"github.com/btpc/blockchain/foundation/blockchain/signature"
)

// Verify runs the unlocking script followed by the locking script on a
// shared stack. The unlocking script may only push data. msg is the
// transaction signing serialization checked by the signature opcodes.
func Verify(unlocking []byte, locking []byte, msg []byte, verifier signature.Verifier) error {
	unlock, err := Parse(unlocking)
	if err != nil {
		return fmt.Errorf("unlocking script: %w", err)
	}

	lock, err := Parse(locking)
	if err != nil {
		return fmt.Errorf("locking script: %w", err)
	}

	var stack [][]byte
	for _, in := range unlock {
		if in.Op > OpPushData2 {
			return fmt.Errorf("unlocking script opcode[%#x] is not a push: %w", in.Op, ErrUnsupported)
		}
		stack = append(stack, in.Data)
	}

	e := engine{msg: msg, verifier: verifier, stack: stack}
	for _, in := range lock {
		if err := e.step(in); err != nil {
			return err
		}
	}

	if len(e.stack) == 0 || !truthy(e.stack[len(e.stack)-1]) {
		return ErrFalseResult
	}

	return nil
}

// =============================================================================

type engine struct {
	msg      []byte
	verifier signature.Verifier
	stack    [][]byte
}

func (e *engine) pop() ([]byte, error) {
	if len(e.stack) == 0 {
		return nil, ErrStackUnderflow
	}

	top := e.stack[len(e.stack)-1]
	e.stack = e.stack[:len(e.stack)-1]
	return top, nil
}

func (e *engine) pop2() ([]byte, []byte, error) {
	b, err := e.pop()
	if err != nil {
		return nil, nil, err
	}

	a, err := e.pop()
	if err != nil {
		return nil, nil, err
	}

	return a, b, nil
}

func (e *engine) push(v []byte) {
	e.stack = append(e.stack, v)
}

func (e *engine) step(in Instruction) error {
	switch {
	case in.Op <= OpPushData2:
		e.push(in.Data)
		return nil
	}

	switch in.Op {
	case OpTrue:
		e.push([]byte{1})

	case OpDup:
		if len(e.stack) == 0 {
			return ErrStackUnderflow
		}
		e.push(e.stack[len(e.stack)-1])

	case OpHash160:
		v, err := e.pop()
		if err != nil {
			return err
		}
		e.push(PubKeyHash(v))

	case OpEqual, OpEqualVerify:
		a, b, err := e.pop2()
		if err != nil {
			return err
		}

		eq := bytes.Equal(a, b)
		if in.Op == OpEqualVerify {
			if !eq {
				return ErrVerifyFailed
			}
			return nil
		}
		e.push(boolBytes(eq))

	case OpVerify:
		v, err := e.pop()
		if err != nil {
			return err
		}
		if !truthy(v) {
			return ErrVerifyFailed
		}

	case OpCheckMLDSASig, OpCheckMLDSASigVrfy:
		sig, pub, err := e.pop2()
		if err != nil {
			return err
		}

		ok := e.verifier.Verify(e.msg, sig, pub)
		if in.Op == OpCheckMLDSASigVrfy {
			if !ok {
				return ErrSignatureFailed
			}
			return nil
		}
		e.push(boolBytes(ok))

	default:
		return fmt.Errorf("opcode[%#x]: %w", in.Op, ErrUnsupported)
	}

	return nil
}

func boolBytes(v bool) []byte {
	if v {
		return []byte{1}
	}
	return []byte{}
}

func truthy(v []byte) bool {
	for _, b := range v {
		if b != 0 {
			return true
		}
	}
	return false
}
