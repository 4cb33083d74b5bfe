package email

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/hitoshi/foodsave/internal/model"
)

// 件名は固定。本文のみ寄付一覧で変わる。
const (
	SubjectPendingDigest  = "Pending Donations"
	SubjectApprovedDigest = "New Chats Available"
)

var digestTemplate = template.Must(template.New("digest").Parse(`
<div style="font-family: Arial, sans-serif; color:#333;">
  <h2 style="color:#A8D5BA; text-align:center;">FOODSAVE HUB</h2>
  <p>Hello {{.UserName}},</p>
  <p>{{.Intro}}</p>
  <table style="width:100%; border-collapse: collapse; margin: 20px 0;">
    <thead>
      <tr style="background-color:#A8D5BA; color:#fff;">
        <th style="padding: 10px; border: 1px solid #ccc;">Donation ID</th>
        <th style="padding: 10px; border: 1px solid #ccc;">{{.StatusHeader}}</th>
      </tr>
    </thead>
    <tbody>
      {{- range .Donations}}
      <tr>
        <td style="padding: 10px; border: 1px solid;">Donation #{{.ID}}</td>
        <td style="padding: 10px; border: 1px solid;">{{$.StatusCell}}</td>
      </tr>
      {{- end}}
    </tbody>
  </table>
  <p style="text-align:center;">
    <a href="{{.LinkURL}}" style="display:inline-block; padding:10px 20px; background-color:#C8A2C8; color:#fff; text-decoration:none; border-radius:5px;">{{.LinkLabel}}</a>
  </p>
  <p style="text-align:center;">Thank you.</p>
</div>
`))

type digestData struct {
	UserName     string
	Intro        string
	StatusHeader string
	StatusCell   string
	Donations    []*model.Donation
	LinkURL      string
	LinkLabel    string
}

func renderDigest(data digestData) (string, error) {
	if data.UserName == "" {
		data.UserName = "User"
	}
	var b strings.Builder
	if err := digestTemplate.Execute(&b, data); err != nil {
		return "", fmt.Errorf("ダイジェストメールの生成に失敗しました: %w", err)
	}
	return b.String(), nil
}

// ComposePendingDigest は慈善団体向けの承認待ちダイジェスト本文を生成する。
// 寄付が0件の場合は空文字を返し、送信はスキップされる。
func ComposePendingDigest(userName string, donations []*model.Donation, frontendURL string) (string, error) {
	if len(donations) == 0 {
		return "", nil
	}
	return renderDigest(digestData{
		UserName:     userName,
		Intro:        "Here are your pending donations:",
		StatusHeader: "Status",
		StatusCell:   "Pending action required",
		Donations:    donations,
		LinkURL:      frontendURL + "/donations",
		LinkLabel:    "Go to Donations",
	})
}

// ComposeApprovedDigest は当事者向けのチャット開通ダイジェスト本文を生成する。
func ComposeApprovedDigest(userName string, donations []*model.Donation, frontendURL string) (string, error) {
	if len(donations) == 0 {
		return "", nil
	}
	return renderDigest(digestData{
		UserName:     userName,
		Intro:        "You have new chats available for the following donations:",
		StatusHeader: "Chat Status",
		StatusCell:   "Chat now available",
		Donations:    donations,
		LinkURL:      frontendURL + "/communication",
		LinkLabel:    "Go to Chats",
	})
}
