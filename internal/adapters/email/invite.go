package email

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/yuin/goldmark"
)

// inviteTemplate is the Markdown body of the invitation email. It is
// rendered to HTML at send time so the copy stays editable as text.
const inviteTemplate = `# You're invited to join %s

You've been invited to join **%s** on Clubdesk as %s.

Open the app and redeem invite code ` + "`%s`" + ` with this email
address before **%s**.

If you weren't expecting this invitation you can ignore this email.
The invite expires on its own.`

// ComposeInvite builds the invitation email for a club invite.
// PRE: clubName, inviteID, and role are non-empty
// POST: Returns subject and rendered HTML body
func ComposeInvite(clubName, inviteID, role string, expiresAt time.Time) (subject, html string, err error) {
	article := "an"
	if !strings.HasPrefix(role, "a") {
		article = "a"
	}
	md := fmt.Sprintf(inviteTemplate,
		clubName,
		clubName,
		article+" "+role,
		inviteID,
		expiresAt.Format("2 January 2006"),
	)

	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", "", fmt.Errorf("render invite email: %w", err)
	}
	return fmt.Sprintf("Invitation to join %s", clubName), buf.String(), nil
}
