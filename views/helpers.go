package views

import (
	"net/url"
	"strconv"
)

func pageTitle(title, site string) string {
	if title == "" {
		return site
	}
	return title + " | " + site
}

func dimensions(width, height int) string {
	return strconv.Itoa(width) + "×" + strconv.Itoa(height)
}

func deleteAction(slug string) string {
	return "/admin/templates/" + url.PathEscape(slug) + "/delete/"
}
