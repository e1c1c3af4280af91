package codec

import (
	"math"
	"reflect"
	"unsafe"
)

// lowBits 返回低 width 位全为 1 的掩码。
func lowBits(width int) uint64 {
	if width >= 64 {
		return math.MaxUint64
	}
	return uint64(1)<<width - 1
}

// byteShift 返回 size 字节整数中第 i 个字节（按写出顺序）对应的位偏移。
// 大端先写最高字节，小端先写最低字节。
func byteShift(e Endian, i, size int) int {
	if e == LittleEndian {
		return i * 8
	}
	return (size - i - 1) * 8
}

// signExtend 把低 width 位按二进制补码解释为有符号数。
func signExtend(v uint64, width int) int64 {
	if width >= 64 {
		return int64(v)
	}
	shift := 64 - width
	return int64(v<<shift) >> shift
}

// float32Bits 直接读取 float32 底层的位模式，具名类型与 complex64 的分量也一样，
// 不经过 float64 转换，signaling NaN 保持不变。i 为 complex64 中的分量下标。
func float32Bits(v reflect.Value, i int) uint32 {
	return *(*uint32)(unsafe.Add(addressable(v).UnsafePointer(), 4*i))
}

// setFloat32 把位模式原样写入 v 的第 i 个 float32 分量，v 必须可寻址。
func setFloat32(v reflect.Value, i int, bits uint32) {
	*(*uint32)(unsafe.Add(v.Addr().UnsafePointer(), 4*i)) = bits
}

func enumRaw(v reflect.Value) uint64 {
	if isSignedKind(v.Kind()) {
		return uint64(v.Int())
	}
	return v.Uint()
}
