package handle

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/filedeck/pkg/internal/types"
	"github.com/yeisme/filedeck/pkg/log"
)

// multipartOverhead 请求体上限在文件上限之外为表单边界与其他字段预留的空间.
const multipartOverhead = 1 << 20

// UploadFile POST /upload，multipart 字段 file 必填，folder 可选.
//
// maxBytes 为单个文件允许的最大字节数，超出返回 413. 0 字节文件正常入库.
//
// 返回记录的 name 为去掉最后一个扩展名的文件名；只有一个前导点的文件（.env、.gitignore）
// 整体视为名称而不是扩展名，name 与 originalName 相同，不会是空字符串.
func UploadFile(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		svc, ok := fileService(c)
		if !ok {
			return
		}

		if maxBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+multipartOverhead)
		}

		l := log.Ctx(c.Request.Context())

		header, err := c.FormFile("file")
		if err != nil {
			if tooLarge(err) {
				l.Warn().Err(err).Int64("limit", maxBytes).Msg("upload body too large")
				c.JSON(http.StatusRequestEntityTooLarge, types.ErrorResponse{Error: MsgFileTooLarge})

				return
			}

			l.Warn().Err(err).Msg("upload without file")
			c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: MsgNoFile})

			return
		}

		if maxBytes > 0 && header.Size > maxBytes {
			l.Warn().Int64("size", header.Size).Int64("limit", maxBytes).Msg("upload file too large")
			c.JSON(http.StatusRequestEntityTooLarge, types.ErrorResponse{Error: MsgFileTooLarge})

			return
		}

		var form types.UploadForm
		if err := c.ShouldBind(&form); err != nil {
			l.Warn().Err(err).Msg("invalid upload form")
			c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: MsgInvalidParams})

			return
		}

		data, err := readPart(header)
		if err != nil {
			l.Error().Err(err).Str("filename", header.Filename).Msg("read upload part")
			c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: MsgNoFile})

			return
		}

		in := types.IngestInput{
			Data:         data,
			Filename:     header.Filename,
			DeclaredMIME: header.Header.Get("Content-Type"),
		}

		if _, present := c.GetPostForm("folder"); present {
			in.Folder = &form.Folder
		}

		f, err := svc.Ingest(c.Request.Context(), in)
		if err != nil {
			fail(c, err, failUpload)
			return
		}

		c.JSON(http.StatusOK, f)
	}
}

func readPart(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return true
	}

	return errors.Is(err, multipart.ErrMessageTooLarge)
}
