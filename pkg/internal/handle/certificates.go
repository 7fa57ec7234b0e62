package handle

import (
	"errors"
	"io/fs"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/certvault/pkg/context"
	"github.com/yeisme/certvault/pkg/internal/service"
	"github.com/yeisme/certvault/pkg/internal/slug"
	"github.com/yeisme/certvault/pkg/internal/types"
)

// ListCertificates 返回全部证书记录.
//
//	@Summary		全部证书
//	@Description	返回全部证书记录，不排序；没有任何记录时返回 404
//	@Tags			证书
//	@Produce		json
//	@Success		200	{array}		model.Certificate
//	@Failure		404	{object}	types.MessageResponse
//	@Failure		500	{object}	types.MessageResponse
//	@Router			/all-certificates [get]
func ListCertificates(c *gin.Context) {
	ctx := c.Request.Context()
	l := ctxPkg.Logger(ctx)

	certs, err := service.NewCertificateService(ctx).ListCertificates(ctx)
	if err != nil {
		l.Error().Err(err).Msg("list certificates failed")
		_ = c.Error(err)
		message(c, http.StatusInternalServerError, types.MsgQueryFailed)

		return
	}

	// 空结果按 404 处理
	if len(certs) == 0 {
		message(c, http.StatusNotFound, types.MsgNoCertificates)

		return
	}

	body, err := sonic.Marshal(certs)
	if err != nil {
		l.Error().Err(err).Msg("encode certificates failed")
		message(c, http.StatusInternalServerError, types.MsgQueryFailed)

		return
	}

	writeJSONWithETag(c, http.StatusOK, body)
}

// GetCertificateFile 下载证书 PDF.
//
//	@Summary	证书文件
//	@Tags		证书
//	@Produce	application/pdf
//	@Param		file	path		string	true	"文件名，如 sertifikat-ahmad-fauzi.pdf"
//	@Success	200		{file}		binary
//	@Failure	404		{object}	types.MessageResponse
//	@Router		/certificates/{file} [get]
func GetCertificateFile(c *gin.Context) {
	file := c.Param("file")
	if !slug.IsCertificateFile(file) {
		message(c, http.StatusNotFound, types.MsgCertificateNotFound)

		return
	}

	files := ctxPkg.GetFileStore(c.Request.Context())
	if files == nil {
		message(c, http.StatusServiceUnavailable, "file store not initialized")

		return
	}

	rc, size, err := files.Open(c.Request.Context(), file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			message(c, http.StatusNotFound, types.MsgCertificateNotFound)

			return
		}

		l := ctxPkg.Logger(c.Request.Context())
		l.Error().Err(err).Str("file", file).Msg("open certificate failed")
		message(c, http.StatusInternalServerError, "failed to read certificate")

		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, size, "application/pdf", rc, map[string]string{
		"Content-Disposition": `inline; filename="` + file + `"`,
		"Cache-Control":       "no-cache",
	})
}
