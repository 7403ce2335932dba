package layout

import (
    "reflect"
    "unsafe"
)

// Machine word size and the strongest alignment an inline buffer of
// uintptr words guarantees.
const (
    WordSize  = unsafe.Sizeof(uintptr(0))
    WordAlign = unsafe.Alignof(uintptr(0))
)

// IsScalarKind reports whether k is represented without pointers.
func IsScalarKind(k reflect.Kind) bool {
    switch k {
    case reflect.Bool,
        reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
        reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
        reflect.Uintptr,
        reflect.Float32, reflect.Float64,
        reflect.Complex64, reflect.Complex128:
        return true
    default:
        return false
    }
}

// PointerFree reports whether t's in-memory representation holds no
// pointers the garbage collector would need to scan.
func PointerFree(t reflect.Type) bool {
    switch t.Kind() {
    case reflect.Array:
        return t.Len() == 0 || PointerFree(t.Elem())
    case reflect.Struct:
        for i := 0; i < t.NumField(); i++ {
            if !PointerFree(t.Field(i).Type) {
                return false
            }
        }
        return true
    default:
        return IsScalarKind(t.Kind())
    }
}
