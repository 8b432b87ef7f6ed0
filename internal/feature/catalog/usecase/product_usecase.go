package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"catalog_backend/internal/feature/catalog/domain/entity"
	"catalog_backend/internal/shared/validation"
)

const (
	// PerPage は商品一覧の固定ページサイズです。
	PerPage = 5

	// maxImageKB はアップロード画像のサイズ上限（キロバイト）です。
	maxImageKB = 2048

	// maxTitleLength は商品タイトルの最大文字数です。
	maxTitleLength = 255
)

// allowedImageTypes は許可する画像MIMEタイプと保存時の拡張子の対応表です。
// 形式判定は拡張子ではなくバイト列のスニッフィングで行います。
var allowedImageTypes = map[string]string{
	"image/jpeg":    ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/svg+xml": ".svg",
}

// ProductRepository は商品エンティティの永続化層を抽象化します。
// Goの慣例に従い、インターフェースはプロバイダー（adapters）ではなくコンシューマー（usecase）が定義します。
type ProductRepository interface {
	// Create は新しい商品を永続化します。
	Create(ctx context.Context, p *entity.Product) error

	// FindByID は指定されたIDの商品を取得します。
	// 存在しない場合、ErrProductNotFoundを返します。
	FindByID(ctx context.Context, id uint) (*entity.Product, error)

	// Update は商品の全フィールドを保存します。
	Update(ctx context.Context, p *entity.Product) error

	// Delete は商品の行を削除します。存在しない場合、ErrProductNotFoundを返します。
	Delete(ctx context.Context, id uint) error

	// List は新しい順に並べた商品のページと総件数を返します。
	List(ctx context.Context, offset, limit int) ([]entity.Product, int64, error)
}

// BlobStore は商品画像Blobの保存先を抽象化します。
// 商品のBlobパスへ書き込むのはこのフィーチャーだけです。
type BlobStore interface {
	// Save はBlobを保存します。
	Save(ctx context.Context, name string, data []byte) error
	// Delete はBlobを削除します。存在しないBlobの削除はエラーにしません。
	Delete(ctx context.Context, name string) error
}

// CreateInput は商品作成の入力です。PriceとStockはリクエストの生の文字列の
// まま受け取り、検証時にパースしてフィールド別エラーに集約します。
type CreateInput struct {
	Image       []byte
	Title       string
	Description string
	Price       string
	Stock       string
}

// UpdateInput は部分更新の入力です。nilのフィールドは変更されません。
type UpdateInput struct {
	Image       []byte // nil = 画像据え置き
	Title       *string
	Description *string
	Price       *string
	Stock       *string
}

// ListOutput は商品一覧のページとメタデータです。
type ListOutput struct {
	Items   []entity.Product
	Total   int64
	Page    int
	PerPage int
}

// ProductUsecase は商品カタログのビジネスロジックを実装します。
type ProductUsecase struct {
	products ProductRepository
	blobs    BlobStore
}

// NewProductUsecase はProductUsecaseの新しいインスタンスを生成します。
func NewProductUsecase(products ProductRepository, blobs BlobStore) *ProductUsecase {
	return &ProductUsecase{products: products, blobs: blobs}
}

// List は商品を新しい順・固定ページサイズで返します。認証不要です。
func (u *ProductUsecase) List(ctx context.Context, page int) (*ListOutput, error) {
	if page < 1 {
		page = 1
	}
	items, total, err := u.products.List(ctx, (page-1)*PerPage, PerPage)
	if err != nil {
		return nil, err
	}
	return &ListOutput{Items: items, Total: total, Page: page, PerPage: PerPage}, nil
}

// Get は1件の商品を返します。
func (u *ProductUsecase) Get(ctx context.Context, id uint) (*entity.Product, error) {
	return u.products.FindByID(ctx, id)
}

// Create は画像Blobを保存してから商品行を永続化します。
// Blob書き込みの失敗時は行を作らず中断し、行の挿入に失敗した場合は
// 孤児Blobをベストエフォートで削除します。statusは必ず在庫から導出します。
func (u *ProductUsecase) Create(ctx context.Context, in CreateInput) (*entity.Product, error) {
	fields := validation.FieldErrors{}

	ext := validateImage(in.Image, true, fields)
	validateTitle(&in.Title, fields)
	validateDescription(&in.Description, fields)
	price := validatePrice(&in.Price, fields)
	stock := validateStock(&in.Stock, fields)

	if !fields.Empty() {
		return nil, validation.NewError(fields)
	}

	filename := uuid.NewString() + ext
	if err := u.blobs.Save(ctx, filename, in.Image); err != nil {
		return nil, fmt.Errorf("failed to store image: %w", err)
	}

	product := &entity.Product{
		Image:       filename,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Price:       price,
		Stock:       stock,
		Status:      entity.DeriveStatus(stock),
	}
	if err := u.products.Create(ctx, product); err != nil {
		// 行が作れなかったので孤児Blobを片付ける
		if delErr := u.blobs.Delete(ctx, filename); delErr != nil {
			slog.Warn("failed to clean up orphaned blob", "blob", filename, "error", delErr)
		}
		return nil, err
	}

	return product, nil
}

// Update は部分更新を適用します。未指定フィールドは据え置かれ、statusは
// 適用後の在庫から再導出されます。新しい画像は保存→行更新→旧Blob削除の
// 順で処理し、行が欠損Blobを参照する状態を作りません。
func (u *ProductUsecase) Update(ctx context.Context, id uint, in UpdateInput) (*entity.Product, error) {
	product, err := u.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := validation.FieldErrors{}

	ext := ""
	if len(in.Image) > 0 {
		ext = validateImage(in.Image, false, fields)
	}
	if in.Title != nil {
		validateTitle(in.Title, fields)
	}
	if in.Description != nil {
		validateDescription(in.Description, fields)
	}
	price := product.Price
	if in.Price != nil {
		price = validatePrice(in.Price, fields)
	}
	stock := product.Stock
	if in.Stock != nil {
		stock = validateStock(in.Stock, fields)
	}

	if !fields.Empty() {
		return nil, validation.NewError(fields)
	}

	oldImage := ""
	if len(in.Image) > 0 {
		filename := uuid.NewString() + ext
		if err := u.blobs.Save(ctx, filename, in.Image); err != nil {
			return nil, fmt.Errorf("failed to store image: %w", err)
		}
		oldImage = product.Image
		product.Image = filename
	}

	if in.Title != nil {
		product.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	product.Price = price
	product.Stock = stock
	product.Status = entity.DeriveStatus(stock)

	if err := u.products.Update(ctx, product); err != nil {
		if oldImage != "" {
			// 行更新に失敗したら新Blobを片付け、旧参照を生かしたままにする
			if delErr := u.blobs.Delete(ctx, product.Image); delErr != nil {
				slog.Warn("failed to clean up orphaned blob", "blob", product.Image, "error", delErr)
			}
		}
		return nil, err
	}

	if oldImage != "" {
		// 置き換え成功後、旧Blobはどの生存商品からも参照されない
		if err := u.blobs.Delete(ctx, oldImage); err != nil {
			slog.Warn("failed to delete replaced blob", "blob", oldImage, "error", err)
		}
	}

	return product, nil
}

// Delete はBlob、次に行を削除します。Blob削除の失敗は記録のみ行い、
// 行の削除は継続します。
func (u *ProductUsecase) Delete(ctx context.Context, id uint) error {
	product, err := u.products.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := u.blobs.Delete(ctx, product.Image); err != nil {
		slog.Warn("failed to delete product blob", "blob", product.Image, "error", err)
	}

	return u.products.Delete(ctx, id)
}

// validateImage は画像ペイロードを検証し、保存時の拡張子を返します。
func validateImage(data []byte, required bool, fields validation.FieldErrors) string {
	if len(data) == 0 {
		if required {
			fields.Add("image", "The image field is required.")
		}
		return ""
	}
	if len(data) > maxImageKB*1024 {
		fields.Add("image", fmt.Sprintf("The image may not be greater than %d kilobytes.", maxImageKB))
		return ""
	}
	ext, ok := allowedImageTypes[mimetype.Detect(data).String()]
	if !ok {
		fields.Add("image", "The image must be a file of type: jpeg, png, jpg, gif, svg.")
		return ""
	}
	return ext
}

// validateTitle はタイトルの必須・長さ制約を検証します。
func validateTitle(title *string, fields validation.FieldErrors) {
	trimmed := strings.TrimSpace(*title)
	if trimmed == "" {
		fields.Add("title", "The title field is required.")
		return
	}
	if len(trimmed) > maxTitleLength {
		fields.Add("title", fmt.Sprintf("The title may not be greater than %d characters.", maxTitleLength))
	}
}

// validateDescription は説明の必須制約を検証します。
func validateDescription(description *string, fields validation.FieldErrors) {
	if strings.TrimSpace(*description) == "" {
		fields.Add("description", "The description field is required.")
	}
}

// validatePrice は価格をパースし、非負であることを検証します。
func validatePrice(raw *string, fields validation.FieldErrors) float64 {
	s := strings.TrimSpace(*raw)
	if s == "" {
		fields.Add("price", "The price field is required.")
		return 0
	}
	price, err := strconv.ParseFloat(s, 64)
	if err != nil {
		fields.Add("price", "The price must be a number.")
		return 0
	}
	if price < 0 {
		fields.Add("price", "The price must be at least 0.")
		return 0
	}
	return price
}

// validateStock は在庫数をパースし、非負整数であることを検証します。
func validateStock(raw *string, fields validation.FieldErrors) int {
	s := strings.TrimSpace(*raw)
	if s == "" {
		fields.Add("stock", "The stock field is required.")
		return 0
	}
	stock, err := strconv.Atoi(s)
	if err != nil {
		fields.Add("stock", "The stock must be an integer.")
		return 0
	}
	if stock < 0 {
		fields.Add("stock", "The stock must be at least 0.")
		return 0
	}
	return stock
}
