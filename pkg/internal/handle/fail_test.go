package handle

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/filedeck/pkg/internal/service"
	"github.com/yeisme/filedeck/pkg/internal/types"
)

// 测试错误分类：校验错误返回操作相关的描述信息，其余错误只返回通用信息.
func TestFailMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name   string
		err    error
		f      failure
		status int
		msg    string
	}{
		{"delete validation", fmt.Errorf("%w: file id is required", service.ErrValidation), failDelete, http.StatusBadRequest, MsgIDRequired},
		{"get validation", fmt.Errorf("%w: file id is required", service.ErrValidation), failGet, http.StatusBadRequest, MsgIDRequired},
		{"upload validation", fmt.Errorf("%w: bad input", service.ErrValidation), failUpload, http.StatusBadRequest, MsgNoFile},
		{"not found", fmt.Errorf("%w: id-1", service.ErrNotFound), failDelete, http.StatusNotFound, MsgNotFound},
		{"internal", fmt.Errorf("%w: dial tcp 10.0.0.5:5432", service.ErrPersistence), failList, http.StatusInternalServerError, MsgListFailed},
		{"unknown", errors.New("boom"), failUpload, http.StatusInternalServerError, MsgUploadFailed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			fail(c, tc.err, tc.f)

			if w.Code != tc.status {
				t.Fatalf("status = %d, want %d", w.Code, tc.status)
			}

			var body types.ErrorResponse
			if err := sonic.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}

			if body.Error != tc.msg {
				t.Errorf("error = %q, want %q", body.Error, tc.msg)
			}
		})
	}
}
