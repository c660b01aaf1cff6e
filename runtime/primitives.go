package runtime

import (
	"errors"
	"strconv"
	"unicode/utf8"

	"github.com/sergev/sour/lang"
)

// Native keys: methods are "class.alias", free functions the bare alias.
func (in *Interpreter) primitives() map[string]lang.NativeFunc {
	return map[string]lang.NativeFunc{
		"byte._add__byte":          byteArith(func(a, b int64) int64 { return a + b }),
		"byte._sub__byte":          byteArith(func(a, b int64) int64 { return a - b }),
		"byte._mul__byte":          byteArith(func(a, b int64) int64 { return a * b }),
		"byte._div__byte":          primByteDiv,
		"byte._mod__byte":          primByteMod,
		"byte._lt__byte":           byteCompare(func(a, b uint8) bool { return a < b }),
		"byte._gt__byte":           byteCompare(func(a, b uint8) bool { return a > b }),
		"byte._eq__byte":           primEqual,
		"byte.to_char__":           primByteToChar,
		"byte.to_string__":         primToString,
		"char._add__char":          charArith(func(a, b rune) rune { return a + b }),
		"char._sub__char":          charArith(func(a, b rune) rune { return a - b }),
		"char._lt__char":           charCompare(func(a, b rune) bool { return a < b }),
		"char._gt__char":           charCompare(func(a, b rune) bool { return a > b }),
		"char._eq__char":           primEqual,
		"char.to_byte__":           primCharToByte,
		"char.to_string__":         primToString,
		"bool._eq__bool":           primEqual,
		"bool.not__":               primNot,
		"bool.and__bool":           primAnd,
		"bool.or__bool":            primOr,
		"bool.to_string__":         primToString,
		"string._add__string":      primConcat,
		"string._add__char":        primConcat,
		"string._eq__string":       primEqual,
		"string._get__byte":        primStringGet,
		"string.slice__byte__byte": primStringSlice,
		"Map.size__":               primMapSize,
		"Map.set__K__V":            primMapSet,
		"Map._get__K":              primMapGet,
		"Map._set__K__V":           primMapSet,
		"Map.has__K":               primMapHas,
		"Map.delete__K":            primMapDelete,

		"print__string":   in.primPrint,
		"print__char":     in.primPrint,
		"print__byte":     in.primPrint,
		"to_byte__char":   primArgCharToByte,
		"to_byte__byte":   primIdentity,
		"to_char__byte":   primArgByteToChar,
		"to_string__byte": primArgToString,
		"_stdout__char":   in.writer(in.Stdout),
		"_stderr__char":   in.writer(in.Stderr),
		"_stdin__":        in.primStdin,
	}
}

// globals are the values of the builtin variables.
var globals = map[string]lang.Value{
	"true":  lang.BoolValue(true),
	"false": lang.BoolValue(false),
}

// getters implement builtin properties, keyed "class.prop".
var getters = map[string]func(lang.Value) lang.Value{
	"string.len": func(v lang.Value) lang.Value {
		return lang.ByteValue(int64(utf8.RuneCountInString(v.Str())))
	},
}

// valueTypes ties builtin class names to the value tags they describe.
var valueTypes = map[string]lang.ValueType{
	"byte":   lang.TypeByte,
	"char":   lang.TypeChar,
	"bool":   lang.TypeBool,
	"string": lang.TypeString,
	"Map":    lang.TypeMap,
}

// constructors build instances of builtin reference classes for `new`.
var constructors = map[string]func([]lang.Value) (lang.Value, error){
	"Map": func([]lang.Value) (lang.Value, error) {
		return lang.MapValue(lang.NewMap()), nil
	},
}

func byteArith(op func(a, b int64) int64) lang.NativeFunc {
	return func(_ *lang.Evaluator, this lang.Value, args []lang.Value) (lang.Value, error) {
		return lang.ByteValue(op(int64(this.Byte()), int64(args[0].Byte()))), nil
	}
}

func byteCompare(op func(a, b uint8) bool) lang.NativeFunc {
	return func(_ *lang.Evaluator, this lang.Value, args []lang.Value) (lang.Value, error) {
		return lang.BoolValue(op(this.Byte(), args[0].Byte())), nil
	}
}

func charArith(op func(a, b rune) rune) lang.NativeFunc {
	return func(_ *lang.Evaluator, this lang.Value, args []lang.Value) (lang.Value, error) {
		return lang.CharValue(op(this.Char(), args[0].Char())), nil
	}
}

func charCompare(op func(a, b rune) bool) lang.NativeFunc {
	return func(_ *lang.Evaluator, this lang.Value, args []lang.Value) (lang.Value, error) {
		return lang.BoolValue(op(this.Char(), args[0].Char())), nil
	}
}

func primByteDiv(_ *lang.Evaluator, this lang.Value, args []lang.Value) (lang.Value, error) {
	if args[0].Byte() == 0 {
		return lang.Value{}, lang.RangeErrorf("Division by zero")
	}
	return lang.ByteValue(int64(this.Byte() / args[0].Byte())), nil
}

func primByteMod(_ *lang.Evaluator, this lang.Value, args []lang.Value) (lang.Value, error) {
	if args[0].Byte() == 0 {
		return lang.Value{}, lang.RangeErrorf("Division by zero")
	}
	return lang.ByteValue(int64(this.Byte() % args[0].Byte())), nil
}

func primEqual(_ *lang.Evaluator, this lang.Value, args []lang.Value) (lang.Value, error) {
	return lang.BoolValue(lang.Equal(this, args[0])), nil
}

func primByteToChar(_ *lang.Evaluator, this lang.Value, _ []lang.Value) (lang.Value, error) {
	return lang.CharValue(rune(this.Byte())), nil
}

func primCharToByte(_ *lang.Evaluator, this lang.Value, _ []lang.Value) (lang.Value, error) {
	return lang.ByteValue(int64(this.Char())), nil
}

func primToString(_ *lang.Evaluator, this lang.Value, _ []lang.Value) (lang.Value, error) {
	return lang.StringValue(this.String()), nil
}

func primNot(_ *lang.Evaluator, this lang.Value, _ []lang.Value) (lang.Value, error) {
	return lang.BoolValue(!this.Bool()), nil
}

func primAnd(_ *lang.Evaluator, this lang.Value, args []lang.Value) (lang.Value, error) {
	return lang.BoolValue(this.Bool() && args[0].Bool()), nil
}

func primOr(_ *lang.Evaluator, this lang.Value, args []lang.Value) (lang.Value, error) {
	return lang.BoolValue(this.Bool() || args[0].Bool()), nil
}

func primConcat(_ *lang.Evaluator, this lang.Value, args []lang.Value) (lang.Value, error) {
	return lang.StringValue(this.Str() + args[0].String()), nil
}

func primStringGet(_ *lang.Evaluator, this lang.Value, args []lang.Value) (lang.Value, error) {
	runes := []rune(this.Str())
	i := int(args[0].Byte())
	if i >= len(runes) {
		return lang.Value{}, lang.RangeErrorf("Index %d out of range for string of length %d", i, len(runes))
	}
	return lang.CharValue(runes[i]), nil
}

func primStringSlice(_ *lang.Evaluator, this lang.Value, args []lang.Value) (lang.Value, error) {
	runes := []rune(this.Str())
	start, end := int(args[0].Byte()), int(args[1].Byte())
	if start > end || end > len(runes) {
		return lang.Value{}, lang.RangeErrorf("Slice [%d:%d] out of range for string of length %d", start, end, len(runes))
	}
	return lang.StringValue(string(runes[start:end])), nil
}

func primMapSize(_ *lang.Evaluator, this lang.Value, _ []lang.Value) (lang.Value, error) {
	return lang.ByteValue(int64(this.Map().Len())), nil
}

func primMapSet(_ *lang.Evaluator, this lang.Value, args []lang.Value) (lang.Value, error) {
	this.Map().Set(args[0], args[1])
	return lang.Null, nil
}

func primMapGet(_ *lang.Evaluator, this lang.Value, args []lang.Value) (lang.Value, error) {
	v, ok := this.Map().Get(args[0])
	if !ok {
		return lang.Value{}, lang.RangeErrorf("Key %s is not in the map", args[0].Inspect())
	}
	return v, nil
}

func primMapHas(_ *lang.Evaluator, this lang.Value, args []lang.Value) (lang.Value, error) {
	return lang.BoolValue(this.Map().Has(args[0])), nil
}

func primMapDelete(_ *lang.Evaluator, this lang.Value, args []lang.Value) (lang.Value, error) {
	this.Map().Delete(args[0])
	return lang.Null, nil
}

func primIdentity(_ *lang.Evaluator, _ lang.Value, args []lang.Value) (lang.Value, error) {
	return args[0], nil
}

func primArgCharToByte(ev *lang.Evaluator, _ lang.Value, args []lang.Value) (lang.Value, error) {
	return primCharToByte(ev, args[0], nil)
}

func primArgByteToChar(ev *lang.Evaluator, _ lang.Value, args []lang.Value) (lang.Value, error) {
	return primByteToChar(ev, args[0], nil)
}

func primArgToString(_ *lang.Evaluator, _ lang.Value, args []lang.Value) (lang.Value, error) {
	return lang.StringValue(strconv.Itoa(int(args[0].Byte()))), nil
}

func (in *Interpreter) primPrint(_ *lang.Evaluator, _ lang.Value, args []lang.Value) (lang.Value, error) {
	if err := in.Stdout.WriteString(args[0].String() + "\n"); err != nil {
		return lang.Value{}, err
	}
	return lang.Null, nil
}

func (in *Interpreter) writer(stream *lang.Stream) lang.NativeFunc {
	return func(_ *lang.Evaluator, _ lang.Value, args []lang.Value) (lang.Value, error) {
		if err := stream.Write(args[0].Char()); err != nil {
			return lang.Value{}, err
		}
		return lang.Null, nil
	}
}

// primStdin suspends until a character arrives. A closed input yields '\0'.
func (in *Interpreter) primStdin(_ *lang.Evaluator, _ lang.Value, _ []lang.Value) (lang.Value, error) {
	return lang.Suspend(func(resume func(lang.Value, error)) {
		in.Stdin.Read(func(r rune, err error) {
			switch {
			case errors.Is(err, lang.ErrStreamClosed):
				resume(lang.CharValue(0), nil)
			case err != nil:
				resume(lang.Value{}, err)
			default:
				resume(lang.CharValue(r), nil)
			}
		})
	}), nil
}
