package main

import (
	"html/template"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
)

func testTemplates(t *testing.T) map[string]parsedTemplate {
	t.Helper()
	tmpl, err := template.New("create_user").Parse(`<p>{{.fullName}} {{.username}}</p>`)
	require.NoError(t, err)
	return map[string]parsedTemplate{
		"create_user": {tmpl: tmpl, subject: "账户信息"},
	}
}

func TestBuildMessage(t *testing.T) {
	body := []byte(`{"type":"create_user","to":"student@example.com","data":{"fullName":"张三","username":"zhangsan","password":"x"}}`)

	m, err := buildMessage("noreply@example.com", testTemplates(t), body)
	require.NoError(t, err)

	to := m.GetToString()
	assert.Equal(t, []string{"student@example.com"}, to)
	assert.Equal(t, []string{"账户信息"}, m.GetGenHeader(mail.HeaderSubject))
}

func TestBuildMessageErrors(t *testing.T) {
	templates := testTemplates(t)

	tests := map[string]string{
		"not json":      `{`,
		"unknown type":  `{"type":"reset_password","to":"a@example.com"}`,
		"bad recipient": `{"type":"create_user","to":"not an address"}`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := buildMessage("noreply@example.com", templates, []byte(body))
			assert.Error(t, err)
		})
	}
}

func TestLoadTemplatesMissingFiles(t *testing.T) {
	// 测试在 cmd/mail 目录下运行，模板的相对路径不存在
	_, err := loadTemplates()
	assert.Error(t, err)
}
