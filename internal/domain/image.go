package domain

// Object описывает объект, который хранится в S3 (эталонное изображение или файл индекса)
type Object struct {
	Bucket    string
	ObjectKey string
	Data      []byte
	// Передайте значение -1 в Size, если размер потока неизвестен
	// (внимание: при передаче значения -1 будет выделен большой объем памяти).
	Size        int64
	ContentType string // Example: "image/jpeg"
}

func NewObject(bucket string, objectKey string, data []byte, contentType string) *Object {
	return &Object{
		Bucket:      bucket,
		ObjectKey:   objectKey,
		Data:        data,
		Size:        int64(len(data)),
		ContentType: contentType,
	}
}
