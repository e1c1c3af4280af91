package serializer

// Serializer 抽象了“对象 <-> 字节序列”的转换，调用方通过接口注入具体实现。
//
// BinarySerializer 产出紧凑的定长二进制表示；JSONSerializer 用于调试输出，
// 便于把同一个值以可读的形式打印出来。
type Serializer interface {
	// Marshal 将 v 编码为字节序列。
	Marshal(v any) ([]byte, error)

	// Unmarshal 将 data 解码到 v，v 必须为非 nil 指针。
	Unmarshal(data []byte, v any) error
}
