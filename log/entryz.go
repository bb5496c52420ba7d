package log

import "fmt"

// EntryZ is a fluent, allocation-light alternative to Entry for the hot
// paths (trap dispatch, per-instruction tracing): DebugZ("msg").Hex16(...).
// End() builds the field list incrementally and only touches logrus once,
// on End.
type EntryZ struct {
	mod  Module
	lvl  Level
	msg  string
	zfbuf [8]ZField
	zfidx int
}

// NewEntryZ returns a fresh builder. Module.logz allocates each builder
// here; there is no shared pool, Entry values are cheap and short-lived.
func NewEntryZ() *EntryZ {
	return &EntryZ{}
}

func (e *EntryZ) push(f ZField) *EntryZ {
	if e == nil {
		return nil
	}
	if e.zfidx < len(e.zfbuf) {
		e.zfbuf[e.zfidx] = f
		e.zfidx++
	}
	return e
}

func (e *EntryZ) String(key, v string) *EntryZ {
	return e.push(ZField{Type: FieldTypeString, Key: key, String: v})
}

func (e *EntryZ) Bool(key string, v bool) *EntryZ {
	return e.push(ZField{Type: FieldTypeBool, Key: key, Boolean: v})
}

func (e *EntryZ) Hex8(key string, v uint8) *EntryZ {
	return e.push(ZField{Type: FieldTypeHex8, Key: key, Integer: uint64(v)})
}

func (e *EntryZ) Hex16(key string, v uint16) *EntryZ {
	return e.push(ZField{Type: FieldTypeHex16, Key: key, Integer: uint64(v)})
}

func (e *EntryZ) Hex32(key string, v uint32) *EntryZ {
	return e.push(ZField{Type: FieldTypeHex32, Key: key, Integer: uint64(v)})
}

func (e *EntryZ) Int(key string, v int) *EntryZ {
	return e.push(ZField{Type: FieldTypeInt, Key: key, Integer: uint64(v)})
}

func (e *EntryZ) Uint(key string, v uint) *EntryZ {
	return e.push(ZField{Type: FieldTypeUint, Key: key, Integer: uint64(v)})
}

func (e *EntryZ) Error(key string, err error) *EntryZ {
	return e.push(ZField{Type: FieldTypeError, Key: key, Error: err})
}

func (e *EntryZ) Stringer(key string, v fmt.Stringer) *EntryZ {
	return e.push(ZField{Type: FieldTypeStringer, Key: key, Stringer: v})
}

// End flushes the buffered fields through the matching Entry method. A nil
// receiver (module disabled at this level) is a no-op, so call sites never
// need an `if enabled` guard around the chain.
func (e *EntryZ) End() {
	if e == nil {
		return
	}
	fields := make(Fields, e.zfidx)
	for _, f := range e.zfbuf[:e.zfidx] {
		fields[f.Key] = f.Value()
	}
	entry := Entry{mod: e.mod}.WithFields(fields)
	switch e.lvl {
	case DebugLevel:
		entry.Debug(e.msg)
	case InfoLevel:
		entry.Info(e.msg)
	case WarnLevel:
		entry.Warn(e.msg)
	case ErrorLevel:
		entry.Error(e.msg)
	case FatalLevel:
		entry.Fatal(e.msg)
	default:
		entry.Info(e.msg)
	}
}
