package log

import (
	"go.uber.org/zap"
)

const (
	FieldNameModule    = "module"
	FieldNameComponent = "component"

	FieldNameType    = "type"
	FieldNameKind    = "kind"
	FieldNameEndian  = "endian"
	FieldNamePacking = "packing"
)

// FieldModule 返回一个包含模块名的 zap 字段。
func FieldModule(module string) zap.Field {
	return zap.String(FieldNameModule, module)
}

// FieldComponent 返回一个包含组件名的 zap 字段。
func FieldComponent(component string) zap.Field {
	return zap.String(FieldNameComponent, component)
}

// FieldType 返回一个包含 Go 类型名的 zap 字段。
func FieldType(typeName string) zap.Field {
	return zap.String(FieldNameType, typeName)
}

// FieldKind 返回一个包含 Shape 类别的 zap 字段。
func FieldKind(kind string) zap.Field {
	return zap.String(FieldNameKind, kind)
}

// FieldEndian 返回一个包含字节序的 zap 字段。
func FieldEndian(endian string) zap.Field {
	return zap.String(FieldNameEndian, endian)
}

// FieldPacking 返回一个包含打包粒度的 zap 字段。
func FieldPacking(packing string) zap.Field {
	return zap.String(FieldNamePacking, packing)
}
