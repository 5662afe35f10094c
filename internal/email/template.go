package email

import (
	"html/template"
	"strings"
)

var videoReadyTmpl = template.Must(template.New("video_ready").Parse(`<!DOCTYPE html>
<html>
<head>
  <style>
    body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; }
    .container { max-width: 600px; margin: 0 auto; padding: 20px; }
    .header { text-align: center; padding: 30px 0; }
    .header h1 { color: #1a472a; margin: 0; }
    .content { background: #f9f9f9; border-radius: 10px; padding: 30px; text-align: center; }
    .button { display: inline-block; background: #c62828; color: white; padding: 15px 30px; text-decoration: none; border-radius: 50px; font-weight: bold; margin: 20px 0; }
    .footer { text-align: center; padding: 20px; color: #666; font-size: 14px; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>Your Santa Video is Ready!</h1>
    </div>
    <div class="content">
      <p>Great news! Your personalized Santa Magic Video has been created and is ready to download.</p>
      <p>Click the button below to view and download your video:</p>
      <a href="{{.VideoURL}}" class="button">Watch Your Video</a>
      <p style="margin-top: 30px; font-size: 14px; color: #666;">
        This link will be available for 7 days. Make sure to download your video!
      </p>
    </div>
    <div class="footer">
      <p>Made by Santa Magic Video</p>
      <p>Spreading Christmas joy, one video at a time!</p>
    </div>
  </div>
</body>
</html>`))

// RenderVideoReadyHTML renders the completion email body for a video URL.
func RenderVideoReadyHTML(videoURL string) (string, error) {
	var sb strings.Builder
	err := videoReadyTmpl.Execute(&sb, struct{ VideoURL string }{VideoURL: videoURL})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}
