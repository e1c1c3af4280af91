package bitio

import (
	"fmt"
	"io"
)

// Writer 按位写入底层 io.Writer。
//
// 非并发安全；一个 Writer 只服务于一次编码会话。
type Writer struct {
	w     io.Writer
	order Order

	cache byte  // 尚未输出的不完整字节
	bits  uint8 // cache 中已占用的位数，取值 0..7

	written int64 // 已输出到底层 Writer 的字节数
	buf     [1]byte
}

// NewWriter 创建一个按 order 位序写入 w 的 Writer。
func NewWriter(w io.Writer, order Order) *Writer {
	return &Writer{w: w, order: order}
}

// Order 返回 Writer 的位序。
func (w *Writer) Order() Order {
	return w.order
}

// WriteBits 写入 v 的低 width 位，width 取值 1..64。
// 高于 width 的位被忽略。
func (w *Writer) WriteBits(v uint64, width uint8) error {
	if width == 0 || width > maxWidth {
		return fmt.Errorf("bitio: invalid bit width %d", width)
	}

	for width > 0 {
		free := 8 - w.bits
		take := min(free, width)

		switch w.order {
		case LSBFirst:
			chunk := byte(v) & lowMask(take)
			w.cache |= chunk << w.bits
			v >>= take
		default:
			chunk := byte(v>>(width-take)) & lowMask(take)
			w.cache |= chunk << (free - take)
		}

		w.bits += take
		width -= take

		if w.bits == 8 {
			if err := w.emit(); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteBool 写入单个位。
func (w *Writer) WriteBool(b bool) error {
	if b {
		return w.WriteBits(1, 1)
	}
	return w.WriteBits(0, 1)
}

// WriteByte 写入 8 位。
func (w *Writer) WriteByte(c byte) error {
	return w.WriteBits(uint64(c), 8)
}

// Write 实现 io.Writer。
// 字节对齐时直接透传到底层 Writer，否则逐字节按位拼接。
func (w *Writer) Write(p []byte) (int, error) {
	if w.bits == 0 {
		n, err := w.w.Write(p)
		w.written += int64(n)
		return n, err
	}
	for i, c := range p {
		if err := w.WriteBits(uint64(c), 8); err != nil {
			return i, err
		}
	}
	return len(p), nil
}

// Pending 返回缓存中尚未输出的位数（0..7）。
func (w *Writer) Pending() uint8 {
	return w.bits
}

// Written 返回已经输出到底层 Writer 的字节数。
func (w *Writer) Written() int64 {
	return w.written
}

// Flush 将不完整的字节补零后输出，并返回补齐的位数。
// 已经字节对齐时不做任何写入。
func (w *Writer) Flush() (padded uint8, err error) {
	if w.bits == 0 {
		return 0, nil
	}
	padded = 8 - w.bits
	return padded, w.emit()
}

func (w *Writer) emit() error {
	w.buf[0] = w.cache
	w.cache = 0
	w.bits = 0

	n, err := w.w.Write(w.buf[:])
	w.written += int64(n)
	if err != nil {
		return err
	}
	if n != 1 {
		return io.ErrShortWrite
	}
	return nil
}
