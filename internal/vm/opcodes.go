package vm

import "fmt"

// opcodeHandler implements one table-dispatched opcode (0..26). The two
// high-bit opcodes (draw_sprite, draw_background) are never placed in this
// table — they are tested for before dispatch (spec.md §4.5).
type opcodeHandler func(*VM) error

var opcodeTable = [27]opcodeHandler{
	(*VM).opMovConst,
	(*VM).opMov,
	(*VM).opAdd,
	(*VM).opAddConst,
	(*VM).opCall,
	(*VM).opRet,
	(*VM).opPauseThread,
	(*VM).opJmp,
	(*VM).opSetVec,
	(*VM).opJnz,
	(*VM).opCondJmp,
	(*VM).opSetPalette,
	(*VM).opResetThreads,
	(*VM).opSelectVideoPage,
	(*VM).opFillVideoPage,
	(*VM).opCopyVideoPage,
	(*VM).opBlitFrameBuffer,
	(*VM).opKillThread,
	(*VM).opDrawString,
	(*VM).opSub,
	(*VM).opAnd,
	(*VM).opOr,
	(*VM).opShl,
	(*VM).opShr,
	(*VM).opPlaySound,
	(*VM).opUpdateMemList,
	(*VM).opPlayMusic,
}

func (v *VM) opMovConst() error {
	c := v.bytecode()
	id, err := c.ReadU8()
	if err != nil {
		return err
	}
	val, err := c.ReadI16()
	if err != nil {
		return err
	}
	v.vars[id] = val
	return nil
}

func (v *VM) opMov() error {
	c := v.bytecode()
	d, err := c.ReadU8()
	if err != nil {
		return err
	}
	s, err := c.ReadU8()
	if err != nil {
		return err
	}
	v.vars[d] = v.vars[s]
	return nil
}

// opAdd wraps under Go's defined signed-overflow (two's-complement) int16
// arithmetic, matching the original engine's wraparound behavior.
func (v *VM) opAdd() error {
	c := v.bytecode()
	d, err := c.ReadU8()
	if err != nil {
		return err
	}
	s, err := c.ReadU8()
	if err != nil {
		return err
	}
	v.vars[d] += v.vars[s]
	return nil
}

func (v *VM) opAddConst() error {
	c := v.bytecode()
	id, err := c.ReadU8()
	if err != nil {
		return err
	}
	val, err := c.ReadI16()
	if err != nil {
		return err
	}
	v.vars[id] += val
	return nil
}

func (v *VM) opCall() error {
	c := v.bytecode()
	tgt, err := c.ReadU16()
	if err != nil {
		return err
	}
	v.callStack = append(v.callStack, uint64(c.Pos()))
	c.Seek(int(tgt))
	return nil
}

func (v *VM) opRet() error {
	if len(v.callStack) == 0 {
		return ErrStackUnderflow
	}
	ret := v.callStack[len(v.callStack)-1]
	v.callStack = v.callStack[:len(v.callStack)-1]
	v.bytecode().Seek(int(ret))
	return nil
}

func (v *VM) opPauseThread() error {
	v.channels[v.runningChannel].State = StatePaused
	return nil
}

func (v *VM) opJmp() error {
	c := v.bytecode()
	tgt, err := c.ReadU16()
	if err != nil {
		return err
	}
	c.Seek(int(tgt))
	return nil
}

func (v *VM) opSetVec() error {
	c := v.bytecode()
	chanID, err := c.ReadU8()
	if err != nil {
		return err
	}
	offset, err := c.ReadU16()
	if err != nil {
		return err
	}
	v.channels[chanID].stageNextPC(pcFromOffset(int(offset)))
	return nil
}

// opJnz decrements vars[v] and jumps if it is still non-zero, otherwise
// consumes and discards the target operand (spec.md §8's countdown test).
func (v *VM) opJnz() error {
	c := v.bytecode()
	idx, err := c.ReadU8()
	if err != nil {
		return err
	}
	v.vars[idx]--
	if v.vars[idx] != 0 {
		return v.opJmp()
	}
	_, err = c.ReadU16()
	return err
}

// opCondJmp implements the width-selecting, relation-selecting comparison
// opcode (spec.md §4.5). Operand width: bit 0x80 -> vars[u8], bit 0x40 ->
// i16 immediate, else -> u8 immediate. Relation: low 3 bits, in the fixed
// order ==, !=, b>a, b>=a, a>b, a>=b, else always false.
func (v *VM) opCondJmp() error {
	c := v.bytecode()
	opcode, err := c.ReadU8()
	if err != nil {
		return err
	}
	varIdx, err := c.ReadU8()
	if err != nil {
		return err
	}

	var a int16
	switch {
	case opcode&0x80 != 0:
		ref, err := c.ReadU8()
		if err != nil {
			return err
		}
		a = v.vars[ref]
	case opcode&0x40 != 0:
		a, err = c.ReadI16()
		if err != nil {
			return err
		}
	default:
		raw, err := c.ReadU8()
		if err != nil {
			return err
		}
		a = int16(raw)
	}
	b := v.vars[varIdx]

	var taken bool
	switch opcode & 7 {
	case 0:
		taken = a == b
	case 1:
		taken = a != b
	case 2:
		taken = b > a
	case 3:
		taken = b >= a
	case 4:
		taken = a > b
	case 5:
		taken = a >= b
	default:
		taken = false
	}

	if taken {
		return v.opJmp()
	}
	_, err = c.ReadU16()
	return err
}

func (v *VM) opSetPalette() error {
	p, err := v.bytecode().ReadU16()
	if err != nil {
		return err
	}
	v.video.RequestPalette(uint8(p >> 8))
	return nil
}

// RESET_THREADS action codes: 0 resumes (Paused -> Ready), 1 freezes
// (Ready -> Paused), 2 kills (stages an Invalid PC). Any other value is a
// no-op over the range.
func (v *VM) opResetThreads() error {
	c := v.bytecode()
	from, err := c.ReadU8()
	if err != nil {
		return err
	}
	to, err := c.ReadU8()
	if err != nil {
		return err
	}
	action, err := c.ReadU8()
	if err != nil {
		return err
	}
	if int(from) >= NumChannels || int(to) >= NumChannels || from > to {
		return fmt.Errorf("vm: RESET_THREADS: invalid range [%d,%d]", from, to)
	}
	for id := int(from); id <= int(to); id++ {
		ch := &v.channels[id]
		switch action {
		case 0:
			if ch.State == StatePaused {
				ch.State = StateReady
			}
		case 1:
			if ch.State == StateReady {
				ch.State = StatePaused
			}
		case 2:
			ch.stageNextPC(InvalidPC())
		}
	}
	return nil
}

func (v *VM) opSelectVideoPage() error {
	p, err := v.bytecode().ReadU8()
	if err != nil {
		return err
	}
	v.video.SelectWorkingPage(p)
	return nil
}

func (v *VM) opFillVideoPage() error {
	c := v.bytecode()
	p, err := c.ReadU8()
	if err != nil {
		return err
	}
	color, err := c.ReadU8()
	if err != nil {
		return err
	}
	v.video.FillPage(p, color)
	return nil
}

func (v *VM) opCopyVideoPage() error {
	c := v.bytecode()
	src, err := c.ReadU8()
	if err != nil {
		return err
	}
	dst, err := c.ReadU8()
	if err != nil {
		return err
	}
	v.video.CopyPage(src, dst, v.vars[varScrollY])
	return nil
}

func (v *VM) opBlitFrameBuffer() error {
	v.pacer.Pace(int(v.vars[varPauseSlices]) * 20)
	v.vars[varLastKeyChar] = 0

	p, err := v.bytecode().ReadU8()
	if err != nil {
		return err
	}
	return v.video.UpdateDisplay(p, v.loadedPart.Palette, v.sink)
}

func (v *VM) opKillThread() error {
	v.channels[v.runningChannel].State = StateDead
	return nil
}

// opDrawString is a no-op sink for text rendering (spec.md §9: "no-op sink
// acceptable"); it still consumes its operands so the cursor stays aligned.
func (v *VM) opDrawString() error {
	c := v.bytecode()
	if _, err := c.ReadU16(); err != nil {
		return err
	}
	if _, err := c.ReadU8(); err != nil {
		return err
	}
	if _, err := c.ReadU8(); err != nil {
		return err
	}
	_, err := c.ReadU8()
	return err
}

func (v *VM) opSub() error {
	c := v.bytecode()
	d, err := c.ReadU8()
	if err != nil {
		return err
	}
	s, err := c.ReadU8()
	if err != nil {
		return err
	}
	v.vars[d] -= v.vars[s]
	return nil
}

func (v *VM) opAnd() error {
	c := v.bytecode()
	idx, err := c.ReadU8()
	if err != nil {
		return err
	}
	val, err := c.ReadU16()
	if err != nil {
		return err
	}
	v.vars[idx] &= int16(val)
	return nil
}

func (v *VM) opOr() error {
	c := v.bytecode()
	idx, err := c.ReadU8()
	if err != nil {
		return err
	}
	val, err := c.ReadU16()
	if err != nil {
		return err
	}
	v.vars[idx] |= int16(val)
	return nil
}

func (v *VM) opShl() error {
	c := v.bytecode()
	idx, err := c.ReadU8()
	if err != nil {
		return err
	}
	val, err := c.ReadU16()
	if err != nil {
		return err
	}
	v.vars[idx] <<= uint16(val)
	return nil
}

// opShr is an arithmetic (sign-preserving) right shift (spec.md §4.5).
func (v *VM) opShr() error {
	c := v.bytecode()
	idx, err := c.ReadU8()
	if err != nil {
		return err
	}
	val, err := c.ReadU16()
	if err != nil {
		return err
	}
	v.vars[idx] >>= uint16(val)
	return nil
}

// opPlaySound consumes its operands; actual audio output is outside this
// engine's scope (SPEC_FULL's sink boundary) and is a no-op here.
func (v *VM) opPlaySound() error {
	c := v.bytecode()
	if _, err := c.ReadU16(); err != nil {
		return err
	}
	if _, err := c.ReadU8(); err != nil {
		return err
	}
	if _, err := c.ReadU8(); err != nil {
		return err
	}
	_, err := c.ReadU8()
	return err
}

// opUpdateMemList implements the three-way id dispatch (spec.md §4.5):
// id == 0 clears the loaded-asset map; 1 <= id < 146 loads and stores the
// mem-entry; id >= 146 stages a part-change request if recognized, else
// fails.
func (v *VM) opUpdateMemList() error {
	id, err := v.bytecode().ReadU16()
	if err != nil {
		return err
	}
	switch {
	case id == 0:
		v.loadedAsset = LoadedAsset{}
	case id < 146:
		data, err := v.registry.LoadEntry(id)
		if err != nil {
			return err
		}
		v.loadedAsset[id] = data
	default:
		return v.requestGamePart(id)
	}
	return nil
}

func (v *VM) opPlayMusic() error {
	c := v.bytecode()
	if _, err := c.ReadU16(); err != nil { // id
		return err
	}
	if _, err := c.ReadU16(); err != nil { // delay
		return err
	}
	_, err := c.ReadU8() // offset
	return err
}
