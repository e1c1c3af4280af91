package bitio

import (
	"fmt"
	"io"
)

// Reader 按位读取底层 io.Reader。
//
// Reader 只在需要时才从底层读取一个字节，因此在 Align 之后底层 Reader
// 的位置正好落在下一个未消费的字节上。
type Reader struct {
	r     io.Reader
	order Order

	cache byte  // 当前字节
	bits  uint8 // cache 中尚未读取的位数，取值 0..7（读取中途可为 8）

	read int64 // 已从底层 Reader 消费的字节数
	buf  [1]byte
}

// NewReader 创建一个按 order 位序读取 r 的 Reader。
func NewReader(r io.Reader, order Order) *Reader {
	return &Reader{r: r, order: order}
}

// Order 返回 Reader 的位序。
func (r *Reader) Order() Order {
	return r.order
}

// ReadBits 读取 width 位（1..64）并以无符号整数返回。
//
// 数据源在读取第一位之前即耗尽时返回 io.EOF；读取中途耗尽时返回
// io.ErrUnexpectedEOF。
func (r *Reader) ReadBits(width uint8) (uint64, error) {
	if width == 0 || width > maxWidth {
		return 0, fmt.Errorf("bitio: invalid bit width %d", width)
	}

	var (
		out uint64
		got uint8
	)
	for got < width {
		if r.bits == 0 {
			if err := r.fill(); err != nil {
				if err == io.EOF && got > 0 {
					err = io.ErrUnexpectedEOF
				}
				return 0, err
			}
		}

		take := min(r.bits, width-got)

		switch r.order {
		case LSBFirst:
			chunk := r.cache & lowMask(take)
			r.cache >>= take
			out |= uint64(chunk) << got
		default:
			chunk := (r.cache >> (r.bits - take)) & lowMask(take)
			out = out<<take | uint64(chunk)
		}

		r.bits -= take
		got += take
	}
	return out, nil
}

// ReadBool 读取单个位。
func (r *Reader) ReadBool() (bool, error) {
	v, err := r.ReadBits(1)
	return v == 1, err
}

// ReadByte 读取 8 位。
func (r *Reader) ReadByte() (byte, error) {
	v, err := r.ReadBits(8)
	return byte(v), err
}

// Read 实现 io.Reader。
// 字节对齐时直接透传到底层 Reader，否则逐字节按位拼接。
func (r *Reader) Read(p []byte) (int, error) {
	if r.bits == 0 {
		n, err := r.r.Read(p)
		r.read += int64(n)
		return n, err
	}
	for i := range p {
		c, err := r.ReadBits(8)
		if err != nil {
			if err == io.ErrUnexpectedEOF && i > 0 {
				return i, nil
			}
			return i, err
		}
		p[i] = byte(c)
	}
	return len(p), nil
}

// Buffered 返回当前字节中尚未读取的位数。
func (r *Reader) Buffered() uint8 {
	return r.bits
}

// BytesRead 返回已从底层 Reader 消费的字节数。
func (r *Reader) BytesRead() int64 {
	return r.read
}

// Align 丢弃当前字节中剩余的位，返回丢弃的位数。不会读取新的字节。
func (r *Reader) Align() (skipped uint8) {
	skipped = r.bits
	r.cache = 0
	r.bits = 0
	return skipped
}

func (r *Reader) fill() error {
	n, err := io.ReadFull(r.r, r.buf[:])
	r.read += int64(n)
	if err != nil {
		return err
	}
	r.cache = r.buf[0]
	r.bits = 8
	return nil
}
