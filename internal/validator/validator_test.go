package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type startBody struct {
	PaperCode  string `json:"paper_code" binding:"required"`
	LengthTier string `json:"length_tier" binding:"required,length_tier"`
}

func bindBody(t *testing.T, body string) map[string]string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	Setup()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	var dst startBody
	return Bind(c, &dst)
}

func TestBindLengthTier(t *testing.T) {
	assert.Nil(t, bindBody(t, `{"paper_code":"FA","length_tier":"half"}`))

	fields := bindBody(t, `{"paper_code":"FA","length_tier":"marathon"}`)
	assert.Equal(t, "length_tier must be one of quick, half or full", fields["length_tier"])

	fields = bindBody(t, `{"length_tier":"quick"}`)
	assert.Contains(t, fields, "paper_code")
}

func TestBindSyntaxError(t *testing.T) {
	fields := bindBody(t, `{"paper_code":`)
	assert.Contains(t, fields, "detail")
}
