package moodle

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrSessionExpired signals that the landing page served the login form
// instead of course content. This is the only error that aborts a sync
// before any work happens.
var ErrSessionExpired = errors.New("session expired")

var (
	sessionKeyRe = regexp.MustCompile(`"sesskey":"([^"]+)"`)
	courseIDRe   = regexp.MustCompile(`"courseId":(\d+)`)
)

// CoursePage holds the fields scraped from a course landing page.
type CoursePage struct {
	Title      string
	CourseID   int
	SessionKey string
}

// ParseCoursePage extracts the course title, course id, and session key
// from landing-page HTML. loginMarker is the substring whose presence
// means the session cookie no longer works.
func ParseCoursePage(html, loginMarker string) (CoursePage, error) {
	if loginMarker != "" && strings.Contains(html, loginMarker) {
		return CoursePage{}, ErrSessionExpired
	}

	m := sessionKeyRe.FindStringSubmatch(html)
	if m == nil {
		return CoursePage{}, fmt.Errorf("course page: no session key found")
	}
	sessionKey := m[1]

	m = courseIDRe.FindStringSubmatch(html)
	if m == nil {
		return CoursePage{}, fmt.Errorf("course page: no course id found")
	}
	courseID, err := strconv.Atoi(m[1])
	if err != nil {
		return CoursePage{}, fmt.Errorf("course page: bad course id %q: %w", m[1], err)
	}

	return CoursePage{
		Title:      pageTitle(html),
		CourseID:   courseID,
		SessionKey: sessionKey,
	}, nil
}

// pageTitle extracts the <title> text, dropping the trailing site name
// after the last " | " separator.
func pageTitle(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if idx := strings.LastIndex(title, " | "); idx >= 0 {
		title = title[:idx]
	}

	return title
}
