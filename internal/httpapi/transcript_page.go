package httpapi

import (
	"html/template"
	"strings"

	"transcribeme/internal/transcripts"
)

// The transcript page is a single self-contained HTML document: no assets to
// serve, readable on a phone, copy button included.

var transcriptTemplate = template.Must(template.New("transcript").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>TranscribeMe - Transcript</title>
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <style>
        body { font-family: Arial, sans-serif; max-width: 800px; margin: 0 auto; padding: 20px; }
        .header { border-bottom: 1px solid #ccc; padding-bottom: 10px; margin-bottom: 20px; }
        .transcript { background: #f9f9f9; padding: 20px; border-radius: 5px; line-height: 1.6; }
        .meta { color: #666; font-size: 0.9em; margin-top: 20px; }
        .copy-btn { background: #007bff; color: white; border: none; padding: 10px 20px;
                    border-radius: 5px; cursor: pointer; margin-top: 10px; }
    </style>
</head>
<body>
    <div class="header">
        <h1>TranscribeMe</h1>
        <p>Your voice message transcript</p>
    </div>

    <div class="transcript">
        <pre style="white-space: pre-wrap; font-family: inherit;">{{.Content}}</pre>
    </div>

    <button class="copy-btn" onclick="copyToClipboard()">Copy to Clipboard</button>

    <div class="meta">
        <p><strong>Format:</strong> {{.Style}}</p>
        <p><strong>Created:</strong> {{.Created}}</p>
        <p><strong>Expires:</strong> {{.Expires}}</p>
    </div>

    <script>
        function copyToClipboard() {
            const text = document.querySelector('.transcript pre').textContent;
            navigator.clipboard.writeText(text).then(() => {
                alert('Transcript copied to clipboard!');
            });
        }
    </script>
</body>
</html>
`))

type transcriptPageData struct {
	Content string
	Style   string
	Created string
	Expires string
}

const pageTimeLayout = "2006-01-02 15:04 UTC"

// RenderTranscriptPage renders the hosted transcript view for an entry.
func RenderTranscriptPage(e transcripts.Entry) (string, error) {
	var b strings.Builder
	err := transcriptTemplate.Execute(&b, transcriptPageData{
		Content: e.Content,
		Style:   string(e.Style),
		Created: e.CreatedAt.UTC().Format(pageTimeLayout),
		Expires: e.ExpiresAt.UTC().Format(pageTimeLayout),
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}
