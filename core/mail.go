package core

import (
	"bytes"
	"fmt"
	"io/fs"
	"net/mail"
	"path"
	"strings"
	"sync"
	"text/template"

	appfs "github.com/trezcool/observa/fs"
)

var (
	templates   = make(map[string]*template.Template) // {name: *Template}
	templatesMu sync.RWMutex
)

type (
	EmailMessage struct {
		To      []mail.Address
		Cc      []mail.Address
		Bcc     []mail.Address
		Subject string
		BodyStr string // simple text/plain, non-templated content

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
	}

	ContextData struct {
		AppName         string
		FrontendBaseURL string
		Data            interface{}
	}

	// EmailService is any service that can send emails
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

// Render fills TextContent from BodyStr or from the named template.
func (m *EmailMessage) Render(conf *Config) error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
		return nil
	} else if m.TemplateName == "" {
		return nil
	}

	templatesMu.RLock()
	tmpl, ok := templates[m.TemplateName]
	templatesMu.RUnlock()
	if !ok {
		return fmt.Errorf("email template %q not found", m.TemplateName)
	}

	var buff bytes.Buffer
	data := ContextData{
		AppName:         conf.AppName,
		FrontendBaseURL: conf.FrontendBaseURL,
		Data:            m.TemplateData,
	}
	if err := tmpl.Execute(&buff, data); err != nil {
		return err
	}
	m.TextContent = buff.String()
	return nil
}

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return m.TextContent != "" }

// ParseEmailTemplates parses the embedded `templates/email/*.txt` files, each one extending `_base.txt`.
func ParseEmailTemplates(logger Logger) {
	root := path.Join("templates", "email")
	fps, err := fs.Glob(appfs.FS, path.Join(root, "*.txt"))
	if err != nil {
		logger.Error(fmt.Sprintf("core.ParseEmailTemplates: %v", err), err)
		return
	}

	templatesMu.Lock()
	defer templatesMu.Unlock()
	for _, fp := range fps {
		fname := path.Base(fp)
		if strings.HasPrefix(fname, "_") {
			continue
		}
		tmpl, err := template.ParseFS(appfs.FS, path.Join(root, "_base.txt"), fp)
		if err != nil {
			logger.Error(fmt.Sprintf("core.ParseEmailTemplates(%s): %v", fname, err), err)
			continue
		}
		templates[strings.TrimSuffix(fname, ".txt")] = tmpl.Option("missingkey=error")
	}
}
