package github

import "github.com/okcodes/github-assets-to-s3/internal/model"

// releaseResponse is the subset of the release payload we read.
type releaseResponse struct {
	ID      int64  `json:"id"`
	TagName string `json:"tag_name"`
	Name    string `json:"name"`
	Body    string `json:"body"`
	HTMLURL string `json:"html_url"`
	Draft   bool   `json:"draft"`
}

func (r releaseResponse) toModel() model.Release {
	return model.Release{
		ID:      r.ID,
		TagName: r.TagName,
		Name:    r.Name,
		Body:    r.Body,
		HTMLURL: r.HTMLURL,
		Draft:   r.Draft,
	}
}

// assetResponse is the subset of the release asset payload we read.
type assetResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

func (a assetResponse) toModel() model.ReleaseAsset {
	return model.ReleaseAsset{ID: a.ID, Name: a.Name, Size: a.Size}
}

type updateReleaseRequest struct {
	TagName string `json:"tag_name,omitempty"`
	Body    string `json:"body"`
}

type errorResponse struct {
	Message string `json:"message"`
}
