// Package usecase はcatalogフィーチャーのビジネスロジックを実装します。
package usecase

import "errors"

var (
	// ErrProductNotFound is returned when no product exists with the given ID.
	ErrProductNotFound = errors.New("product not found")
)
