package abi

import (
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ConvertArgs turns manifest arguments into the Go values the ABI packer
// expects for inputs. Arrays are written as JSON lists.
func ConvertArgs(inputs abi.Arguments, args []string) ([]any, error) {
	if len(inputs) != len(args) {
		return nil, fmt.Errorf("expected %d arguments, got %d", len(inputs), len(args))
	}

	values := make([]any, len(args))
	for i, input := range inputs {
		v, err := ConvertArg(input.Type, args[i])
		if err != nil {
			name := input.Name
			if name == "" {
				name = fmt.Sprintf("#%d", i)
			}
			return nil, fmt.Errorf("argument %s (%s): %w", name, input.Type.String(), err)
		}
		values[i] = v
	}
	return values, nil
}

// ConvertArg converts a single string value to typ
func ConvertArg(typ abi.Type, value string) (any, error) {
	value = strings.TrimSpace(value)

	switch typ.T {
	case abi.AddressTy:
		if !common.IsHexAddress(value) {
			return nil, fmt.Errorf("invalid address %q", value)
		}
		return common.HexToAddress(value), nil

	case abi.BoolTy:
		return strconv.ParseBool(value)

	case abi.StringTy:
		return value, nil

	case abi.UintTy, abi.IntTy:
		n, ok := new(big.Int).SetString(strings.ReplaceAll(value, "_", ""), 0)
		if !ok {
			return nil, fmt.Errorf("invalid integer %q", value)
		}
		if typ.T == abi.UintTy && n.Sign() < 0 {
			return nil, fmt.Errorf("negative value %s for unsigned type", value)
		}
		if n.BitLen() > typ.Size {
			return nil, fmt.Errorf("value %s overflows %s", value, typ.String())
		}
		return sizedInt(typ, n), nil

	case abi.BytesTy:
		b, err := hexutil.Decode(value)
		if err != nil {
			return nil, fmt.Errorf("invalid bytes %q: %w", value, err)
		}
		return b, nil

	case abi.FixedBytesTy:
		b, err := hexutil.Decode(value)
		if err != nil {
			return nil, fmt.Errorf("invalid bytes%d %q: %w", typ.Size, value, err)
		}
		if len(b) > typ.Size {
			return nil, fmt.Errorf("value is %d bytes, bytes%d holds %d", len(b), typ.Size, typ.Size)
		}
		arr := reflect.New(typ.GetType()).Elem()
		reflect.Copy(arr, reflect.ValueOf(b))
		return arr.Interface(), nil

	case abi.SliceTy, abi.ArrayTy:
		return convertList(typ, value)

	default:
		return nil, fmt.Errorf("type %s is not supported in manifests", typ.String())
	}
}

// sizedInt returns n as the Go type go-ethereum packs for typ
func sizedInt(typ abi.Type, n *big.Int) any {
	goType := typ.GetType()
	if goType == reflect.TypeOf(&big.Int{}) {
		return n
	}
	v := reflect.New(goType).Elem()
	if typ.T == abi.UintTy {
		v.SetUint(n.Uint64())
	} else {
		v.SetInt(n.Int64())
	}
	return v.Interface()
}

func convertList(typ abi.Type, value string) (any, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(value), &raw); err != nil {
		return nil, fmt.Errorf("expected a JSON list, got %q", value)
	}
	if typ.T == abi.ArrayTy && len(raw) != typ.Size {
		return nil, fmt.Errorf("expected %d elements, got %d", typ.Size, len(raw))
	}

	var out reflect.Value
	if typ.T == abi.ArrayTy {
		out = reflect.New(typ.GetType()).Elem()
	} else {
		out = reflect.MakeSlice(typ.GetType(), len(raw), len(raw))
	}

	for i, item := range raw {
		elem := string(item)
		var s string
		if json.Unmarshal(item, &s) == nil {
			elem = s
		}
		v, err := ConvertArg(*typ.Elem, elem)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out.Index(i).Set(reflect.ValueOf(v))
	}
	return out.Interface(), nil
}
