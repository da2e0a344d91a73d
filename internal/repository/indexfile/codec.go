// Package indexfile хранит снимок индекса эмбеддингов в одном сжатом файле.
//
// Формат (внутри потока zstd):
//
//	"TIDX" | version uint16 | headerLen uint32 | header (protobuf Struct) |
//	count × (idLen uint16 | id | dim × float32)
//
// Все числа little-endian.
package indexfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/DRSN-tech/tourism-backend/internal/domain"
	"github.com/DRSN-tech/tourism-backend/pkg/e"
	"github.com/klauspost/compress/zstd"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	magic         = "TIDX"
	formatVersion = uint16(1)
	maxHeaderLen  = 1 << 20
	maxDim        = 1 << 16
	// минимальный размер записи без учёта id: idLen + хотя бы один байт id
	entryOverhead = 2 + 1
)

var (
	encOnce sync.Once
	encoder *zstd.Encoder
	encErr  error

	decOnce sync.Once
	decoder *zstd.Decoder
	decErr  error
)

func getEncoder() (*zstd.Encoder, error) {
	encOnce.Do(func() {
		encoder, encErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	})

	return encoder, encErr
}

func getDecoder() (*zstd.Decoder, error) {
	decOnce.Do(func() {
		// 0 = GOMAXPROCS
		decoder, decErr = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	})

	return decoder, decErr
}

// Encode сериализует индекс и сжимает результат.
func Encode(idx *domain.EmbeddingIndex) ([]byte, error) {
	const op = "indexfile.Encode"

	if idx == nil {
		return nil, e.Wrap(op, errors.New("nil index"))
	}
	if idx.Meta.Dim < 1 || idx.Meta.Dim > maxDim {
		return nil, e.Wrap(op, fmt.Errorf("dim %d out of range [1, %d]", idx.Meta.Dim, maxDim))
	}

	header, err := marshalHeader(idx.Meta, len(idx.Entries))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	var buf bytes.Buffer
	buf.Grow(len(magic) + 6 + len(header) + len(idx.Entries)*(2+16+4*idx.Meta.Dim))
	buf.WriteString(magic)
	writeUint16(&buf, formatVersion)
	writeUint32(&buf, uint32(len(header)))
	buf.Write(header)

	vec := make([]byte, 4*idx.Meta.Dim)
	for _, entry := range idx.Entries {
		if len(entry.ID) == 0 || len(entry.ID) > math.MaxUint16 {
			return nil, e.Wrap(op, fmt.Errorf("invalid entry id length %d", len(entry.ID)))
		}
		if len(entry.Vector) != idx.Meta.Dim {
			return nil, e.Wrap(op, e.Wrap(entry.ID, e.ErrDimensionMismatch))
		}

		writeUint16(&buf, uint16(len(entry.ID)))
		buf.WriteString(entry.ID)
		for i, x := range entry.Vector {
			binary.LittleEndian.PutUint32(vec[4*i:], math.Float32bits(x))
		}
		buf.Write(vec)
	}

	enc, err := getEncoder()
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return enc.EncodeAll(buf.Bytes(), make([]byte, 0, buf.Len()/2)), nil
}

// Decode распаковывает и разбирает индекс. Любое нарушение формата — e.ErrIndexCorrupted.
func Decode(data []byte) (*domain.EmbeddingIndex, error) {
	dec, err := getDecoder()
	if err != nil {
		return nil, err
	}

	raw, err := dec.DecodeAll(data, make([]byte, 0, len(data)*2))
	if err != nil {
		return nil, corrupted(err)
	}

	r := bytes.NewReader(raw)

	head := make([]byte, len(magic))
	if _, err := io.ReadFull(r, head); err != nil || string(head) != magic {
		return nil, corrupted(errors.New("bad magic"))
	}

	version, err := readUint16(r)
	if err != nil {
		return nil, corrupted(err)
	}
	if version != formatVersion {
		return nil, corrupted(fmt.Errorf("unsupported format version %d", version))
	}

	headerLen, err := readUint32(r)
	if err != nil {
		return nil, corrupted(err)
	}
	if headerLen == 0 || headerLen > maxHeaderLen {
		return nil, corrupted(fmt.Errorf("header length %d", headerLen))
	}

	header := make([]byte, headerLen)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, corrupted(err)
	}

	meta, count, err := unmarshalHeader(header)
	if err != nil {
		return nil, corrupted(err)
	}

	// заголовок не может обещать больше записей, чем помещается в оставшихся байтах
	if maxCount := r.Len() / (entryOverhead + 4*meta.Dim); count > maxCount {
		return nil, corrupted(fmt.Errorf("header declares %d entries, payload fits at most %d", count, maxCount))
	}

	entries := make([]domain.IndexEntry, 0, count)
	vec := make([]byte, 4*meta.Dim)
	for i := 0; i < count; i++ {
		idLen, err := readUint16(r)
		if err != nil {
			return nil, corrupted(fmt.Errorf("entry %d: %w", i, err))
		}

		id := make([]byte, idLen)
		if _, err := io.ReadFull(r, id); err != nil {
			return nil, corrupted(fmt.Errorf("entry %d: %w", i, err))
		}
		if _, err := io.ReadFull(r, vec); err != nil {
			return nil, corrupted(fmt.Errorf("entry %d: %w", i, err))
		}

		v := make(domain.Vector, meta.Dim)
		for j := range v {
			v[j] = math.Float32frombits(binary.LittleEndian.Uint32(vec[4*j:]))
		}
		// нулевой вектор несравним: такая запись означает повреждённый файл
		if _, err := v.Normalized(); err != nil {
			return nil, corrupted(fmt.Errorf("entry %q: %w", id, err))
		}

		entries = append(entries, domain.IndexEntry{ID: string(id), Vector: v})
	}

	if r.Len() != 0 {
		return nil, corrupted(fmt.Errorf("%d trailing bytes", r.Len()))
	}

	idx, err := domain.NewEmbeddingIndex(meta, entries)
	if err != nil {
		return nil, corrupted(err)
	}

	return idx, nil
}

func marshalHeader(meta domain.IndexMeta, count int) ([]byte, error) {
	p := meta.Preprocessing
	header, err := structpb.NewStruct(map[string]any{
		"model":      meta.Model,
		"dim":        meta.Dim,
		"resize":     p.ResizeShortSide,
		"crop":       p.CropSize,
		"mean":       []any{p.Mean[0], p.Mean[1], p.Mean[2]},
		"std":        []any{p.Std[0], p.Std[1], p.Std[2]},
		"created_at": meta.CreatedAt.UTC().Format(time.RFC3339Nano),
		"count":      count,
	})
	if err != nil {
		return nil, err
	}

	return proto.Marshal(header)
}

func unmarshalHeader(data []byte) (domain.IndexMeta, int, error) {
	var header structpb.Struct
	if err := proto.Unmarshal(data, &header); err != nil {
		return domain.IndexMeta{}, 0, err
	}

	f := header.GetFields()
	dimF, countF := f["dim"].GetNumberValue(), f["count"].GetNumberValue()
	// проверка до приведения к int: float вне диапазона int приводится непредсказуемо
	if dimF < 1 || dimF > maxDim || dimF != math.Trunc(dimF) {
		return domain.IndexMeta{}, 0, fmt.Errorf("dim %v out of range [1, %d]", dimF, maxDim)
	}
	if countF < 0 || countF > math.MaxInt32 || countF != math.Trunc(countF) {
		return domain.IndexMeta{}, 0, fmt.Errorf("count %v out of range", countF)
	}
	dim, count := int(dimF), int(countF)

	mean, err := triple(f["mean"])
	if err != nil {
		return domain.IndexMeta{}, 0, e.Wrap("mean", err)
	}
	std, err := triple(f["std"])
	if err != nil {
		return domain.IndexMeta{}, 0, e.Wrap("std", err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, f["created_at"].GetStringValue())
	if err != nil {
		return domain.IndexMeta{}, 0, e.Wrap("created_at", err)
	}

	return domain.IndexMeta{
		Model: f["model"].GetStringValue(),
		Dim:   dim,
		Preprocessing: domain.Preprocessing{
			ResizeShortSide: int(f["resize"].GetNumberValue()),
			CropSize:        int(f["crop"].GetNumberValue()),
			Mean:            mean,
			Std:             std,
		},
		CreatedAt: createdAt,
	}, count, nil
}

func triple(v *structpb.Value) ([3]float32, error) {
	var out [3]float32

	values := v.GetListValue().GetValues()
	if len(values) != 3 {
		return out, fmt.Errorf("want 3 values, got %d", len(values))
	}
	for i, x := range values {
		out[i] = float32(x.GetNumberValue())
	}

	return out, nil
}

func corrupted(err error) error {
	return fmt.Errorf("%w: %v", e.ErrIndexCorrupted, err)
}

func writeUint16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func readUint16(r io.Reader) (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint16(b[:]), nil
}

func readUint32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint32(b[:]), nil
}
