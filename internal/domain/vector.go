package domain

import (
	"math"

	"github.com/DRSN-tech/tourism-backend/pkg/e"
)

// Vector — эмбеддинг изображения.
type Vector []float32

// Norm возвращает L2-норму вектора.
func (v Vector) Norm() float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}

	return math.Sqrt(sum)
}

// Normalized возвращает копию вектора единичной длины.
// Нормализация выполняется в float64, чтобы повторная нормализация была стабильной.
func (v Vector) Normalized() ([]float64, error) {
	if len(v) == 0 {
		return nil, e.ErrVectorEmbeddingEmpty
	}

	norm := v.Norm()
	if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return nil, e.ErrZeroVector
	}

	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x) / norm
	}

	return out, nil
}

// NormalizedFloat32 — то же, что Normalized, но в float32 для хранения в индексе.
func (v Vector) NormalizedFloat32() (Vector, error) {
	n, err := v.Normalized()
	if err != nil {
		return nil, err
	}

	out := make(Vector, len(n))
	for i, x := range n {
		out[i] = float32(x)
	}

	return out, nil
}

// Dot возвращает скалярное произведение двух векторов одинаковой длины.
func Dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}

	return sum
}
