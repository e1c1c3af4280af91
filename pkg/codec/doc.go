// Package codec 在 Go 值与精确的字节/位序列之间进行转换。
//
// 编解码规则完全由值的静态类型决定：类型首次使用时通过反射构建一次 Shape
// 并缓存，之后的编解码只依赖 Shape。一个会话由 Config 固定字节序
// （BigEndian / LittleEndian）与打包粒度（PackByte / PackBit）：
//
//	PackByte：W 位整数占用 ceil(W/8) 个字节；
//	PackBit ：W 位整数恰好占用 W 位，按位紧密排列。
//
// 流中不含任何长度、类型或魔数头，编码端与解码端必须使用相同的类型定义。
//
// 结构体字段通过 bin 标签调整：
//
//	type Header struct {
//		codec.Packed                // 以位模式编码，结束后补齐到字节边界
//		Version uint8  `bin:"bits=3"`
//		Flags   uint8  `bin:"bits=5"`
//		Next    *Entry `bin:"opt"`  // 1 个单位的存在标志 + 可选负载
//		Cache   uint32 `bin:"-"`    // 不参与编解码
//	}
//
// 联合类型用接口表示，通过 RegisterUnion 注册判别值与变体；
// 枚举为实现了 Enum 的具名整数类型；定长序列为 Go 数组。
// 任何类型都可以实现 Encodable / Decodable，或通过 RegisterCodec
// 注册编解码函数，完全接管该子树的读写。
package codec
