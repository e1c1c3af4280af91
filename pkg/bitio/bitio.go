// Package bitio 提供在 io.Writer / io.Reader 之上按位读写的适配器。
//
// Writer 在内部缓存一个不完整的字节，写满 8 位后立即输出到底层 Writer；
// Flush 会把剩余的不完整字节补零后输出。Reader 与之对称：按需从底层
// Reader 逐字节读取，Align 丢弃当前字节中尚未读取的位，但不会读取新字节。
//
// 位序（字节内部）：
//
//	MSBFirst：先写值的最高位，字节从 bit7 向 bit0 填充（大端会话使用）。
//	LSBFirst：先写值的最低位，字节从 bit0 向 bit7 填充（小端会话使用）。
//
// 例如 MSBFirst 下先写 3 位的 0b101，再写 5 位的 0b00011，得到单字节 0xA3。
package bitio

const maxWidth = 64

// Order 表示字节内部的位序。
type Order uint8

const (
	MSBFirst Order = iota
	LSBFirst
)

func (o Order) String() string {
	switch o {
	case MSBFirst:
		return "msb-first"
	case LSBFirst:
		return "lsb-first"
	default:
		return "unknown"
	}
}

// lowMask 返回低 n 位（n <= 8）全为 1 的字节。
func lowMask(n uint8) byte {
	return byte((uint(1) << n) - 1)
}
