// Package handler はcatalogフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"catalog_backend/internal/api"
	authentity "catalog_backend/internal/feature/auth/domain/entity"
	"catalog_backend/internal/feature/catalog/domain/entity"
	"catalog_backend/internal/feature/catalog/usecase"
	jwtmw "catalog_backend/internal/platform/jwt"
	"catalog_backend/internal/shared/validation"
)

// ProductUsecase は商品カタログ操作のユースケースを定義します。
// Goの慣例に従い、インターフェースはコンシューマー（handler）が定義します。
type ProductUsecase interface {
	List(ctx context.Context, page int) (*usecase.ListOutput, error)
	Get(ctx context.Context, id uint) (*entity.Product, error)
	Create(ctx context.Context, in usecase.CreateInput) (*entity.Product, error)
	Update(ctx context.Context, id uint, in usecase.UpdateInput) (*entity.Product, error)
	Delete(ctx context.Context, id uint) error
}

// TokenIssuer は作成レスポンスにトークンを同梱するための発行インターフェースです。
type TokenIssuer interface {
	IssueFor(ctx context.Context, user *authentity.User, ip string) (string, error)
}

// ProductHandler は商品CRUDのHTTPリクエストを処理します。
type ProductHandler struct {
	uc     ProductUsecase
	tokens TokenIssuer
}

// NewProductHandler はProductHandlerの新しいインスタンスを生成します。
func NewProductHandler(uc ProductUsecase, tokens TokenIssuer) *ProductHandler {
	return &ProductHandler{uc: uc, tokens: tokens}
}

// List は商品一覧を新しい順・固定ページサイズで返します。認証不要です。
func (h *ProductHandler) List(c *gin.Context) {
	page := 1
	if v := c.Query("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			page = p
		}
	}

	out, err := h.uc.List(c.Request.Context(), page)
	if err != nil {
		slog.Error("product list failed", "error", err)
		c.JSON(http.StatusInternalServerError, api.Fail("internal error"))
		return
	}

	c.JSON(http.StatusOK, api.OK("List Data Products", api.Page{
		Items: out.Items,
		Pagination: api.Pagination{
			CurrentPage: out.Page,
			PerPage:     out.PerPage,
			Total:       out.Total,
		},
	}))
}

// Detail は商品1件を返します。認証不要です。
func (h *ProductHandler) Detail(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		c.JSON(http.StatusNotFound, api.Fail("Product not found"))
		return
	}

	product, err := h.uc.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.OK("Detail Data Product", product))
}

// Create は画像付きで商品を作成します。multipart/form-dataを受け付けます。
// 成功時は再発行したトークンをmetaに同梱して201を返します。
func (h *ProductHandler) Create(c *gin.Context) {
	in := usecase.CreateInput{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Price:       c.PostForm("price"),
		Stock:       c.PostForm("stock"),
	}

	image, err := readImageFile(c)
	if err != nil {
		slog.Error("image upload read failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusInternalServerError, api.Fail("internal error"))
		return
	}
	in.Image = image

	product, err := h.uc.Create(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := api.OK("Product created successfully", product)
	if user, ok := jwtmw.CurrentUser(c); ok {
		if token, err := h.tokens.IssueFor(c.Request.Context(), user, c.ClientIP()); err == nil {
			resp.Meta = gin.H{"token": token}
		} else {
			slog.Warn("token reissue failed", "error", err, "user_id", user.ID)
		}
	}

	slog.Info("product created", "product_id", product.ID)
	c.JSON(http.StatusCreated, resp)
}

// Update は部分更新を適用します。multipart/form-dataとJSONの両方を受け付け、
// 指定されなかったフィールドは据え置かれます。
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		c.JSON(http.StatusNotFound, api.Fail("Product not found"))
		return
	}

	var in usecase.UpdateInput
	if strings.Contains(c.ContentType(), "json") {
		if !bindJSONUpdate(c, &in) {
			return
		}
	} else {
		if v, ok := c.GetPostForm("title"); ok {
			in.Title = &v
		}
		if v, ok := c.GetPostForm("description"); ok {
			in.Description = &v
		}
		if v, ok := c.GetPostForm("price"); ok {
			in.Price = &v
		}
		if v, ok := c.GetPostForm("stock"); ok {
			in.Stock = &v
		}
		image, err := readImageFile(c)
		if err != nil {
			slog.Error("image upload read failed", "error", err, "remote_addr", c.ClientIP())
			c.JSON(http.StatusInternalServerError, api.Fail("internal error"))
			return
		}
		in.Image = image
	}

	product, err := h.uc.Update(c.Request.Context(), id, in)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.OK("Product updated successfully", product))
}

// Delete は商品とそのBlobを削除します。
func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		c.JSON(http.StatusNotFound, api.Fail("Product not found"))
		return
	}

	if err := h.uc.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.OK("Product deleted successfully", nil))
}

// writeError はユースケースのエラーをHTTPレスポンスにマッピングします。
func (h *ProductHandler) writeError(c *gin.Context, err error) {
	var ve *validation.Error
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusUnprocessableEntity, api.FailFields("The given data was invalid.", ve.Fields))
	case errors.Is(err, usecase.ErrProductNotFound):
		c.JSON(http.StatusNotFound, api.Fail("Product not found"))
	default:
		// 予期しない永続化・ストレージ障害。内部情報は応答に含めない
		slog.Error("product operation failed", "error", err)
		c.JSON(http.StatusInternalServerError, api.Fail("internal error"))
	}
}

// bindJSONUpdate はJSONボディの部分更新入力を読み取ります。
// 失敗時はレスポンスを書き込み、falseを返します。
func bindJSONUpdate(c *gin.Context, in *usecase.UpdateInput) bool {
	var req struct {
		Title       *string      `json:"title"`
		Description *string      `json:"description"`
		Price       *json.Number `json:"price"`
		Stock       *json.Number `json:"stock"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("product update request malformed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusUnprocessableEntity, api.Fail("invalid request body"))
		return false
	}

	in.Title = req.Title
	in.Description = req.Description
	if req.Price != nil {
		v := req.Price.String()
		in.Price = &v
	}
	if req.Stock != nil {
		v := req.Stock.String()
		in.Stock = &v
	}
	return true
}

// readImageFile はmultipartフォームのimageファイルを読み取ります。
// ファイルが添付されていない場合はnilを返します（必須チェックはユースケース側）。
func readImageFile(c *gin.Context) ([]byte, error) {
	file, err := c.FormFile("image")
	if err != nil {
		return nil, nil
	}

	f, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Warn("failed to close uploaded file", "error", err)
		}
	}()

	return io.ReadAll(f)
}

// parseID はパスパラメータのIDをパースします。
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
