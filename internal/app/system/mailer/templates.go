// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// LinkEmailData holds data for the emails that carry a single action link.
type LinkEmailData struct {
	SiteName  string
	Name      string
	Link      string
	ExpiresIn string // e.g., "1 hour"
}

type linkEmail struct {
	subject string
	intro   string
	button  string
	outro   string
}

var (
	passwordReset = linkEmail{
		subject: "Reset your %s password",
		intro:   "We received a request to reset the password for your account.",
		button:  "Reset password",
		outro:   "If you did not request a password reset, you can safely ignore this email.",
	}
	verifyEmail = linkEmail{
		subject: "Confirm your %s email address",
		intro:   "Please confirm the email address for your account.",
		button:  "Confirm email",
		outro:   "If you did not create an account, you can safely ignore this email.",
	}
)

// BuildPasswordResetEmail creates a password reset email with both HTML and text bodies.
func BuildPasswordResetEmail(data LinkEmailData) Email {
	return buildLinkEmail(passwordReset, data)
}

// BuildVerificationEmail creates an email-verification email with both HTML and text bodies.
func BuildVerificationEmail(data LinkEmailData) Email {
	return buildLinkEmail(verifyEmail, data)
}

func buildLinkEmail(kind linkEmail, data LinkEmailData) Email {
	return Email{
		To:       "", // Set by caller
		Subject:  fmt.Sprintf(kind.subject, data.SiteName),
		TextBody: buildLinkText(kind, data),
		HTMLBody: buildLinkHTML(kind, data),
	}
}

func buildLinkText(kind linkEmail, data LinkEmailData) string {
	var buf bytes.Buffer
	if data.Name != "" {
		buf.WriteString(fmt.Sprintf("Hi %s,\n\n", data.Name))
	}
	buf.WriteString(kind.intro + "\n\n")
	buf.WriteString(kind.button + ":\n")
	buf.WriteString(data.Link + "\n\n")
	buf.WriteString(fmt.Sprintf("This link expires in %s.\n\n", data.ExpiresIn))
	buf.WriteString(kind.outro + "\n")
	return buf.String()
}

var linkTmpl = template.Must(template.New("link").Parse(linkHTMLTemplate))

func buildLinkHTML(kind linkEmail, data LinkEmailData) string {
	var buf bytes.Buffer
	_ = linkTmpl.Execute(&buf, struct {
		LinkEmailData
		Intro  string
		Button string
		Outro  string
	}{data, kind.intro, kind.button, kind.outro})
	return buf.String()
}

const linkHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.SiteName}}</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px;">
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #0f766e;">{{.SiteName}}</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 32px;">
              {{if .Name}}<p style="margin: 0 0 16px; font-size: 16px; color: #374151;">Hi {{.Name}},</p>{{end}}
              <p style="margin: 0 0 24px; font-size: 16px; color: #374151; line-height: 1.5;">{{.Intro}}</p>
              <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
                <tr>
                  <td align="center">
                    <a href="{{.Link}}" style="display: inline-block; padding: 14px 32px; background-color: #0f766e; color: #ffffff; text-decoration: none; font-size: 16px; font-weight: 500; border-radius: 6px;">{{.Button}}</a>
                  </td>
                </tr>
              </table>
              <p style="margin: 24px 0 0; font-size: 13px; color: #9ca3af; text-align: center;">This link expires in {{.ExpiresIn}}.</p>
            </td>
          </tr>
          <tr>
            <td style="padding: 24px 32px; background-color: #f9fafb; border-top: 1px solid #e5e7eb; border-radius: 0 0 8px 8px;">
              <p style="margin: 0; font-size: 12px; color: #9ca3af; text-align: center;">{{.Outro}}</p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
