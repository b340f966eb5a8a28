package service

import "github.com/docket/docket/internal/model"

// CheckEdit decides whether userID may merge-patch doc.
// Status is checked before ownership: a published document is never editable.
func CheckEdit(doc *model.Document, userID string) error {
	switch {
	case doc.IsPublished():
		return ErrAlreadyPublished
	case !doc.IsDraft():
		return ErrUnknownStatus
	case !doc.IsOwnedBy(userID):
		return ErrForbidden
	}
	return nil
}

// CheckPublish decides whether userID may publish doc. Republishing is allowed.
func CheckPublish(doc *model.Document, userID string) error {
	if !doc.IsOwnedBy(userID) {
		return ErrForbidden
	}
	return nil
}

// CheckRead decides whether userID may read doc. Empty userID is anonymous.
func CheckRead(doc *model.Document, userID string) error {
	if doc.IsOwnedBy(userID) || doc.IsPublished() {
		return nil
	}
	return ErrForbidden
}
