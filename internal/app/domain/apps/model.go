// Package apps holds the app record model and the listing query contract.
package apps

import (
	"fmt"
	"maps"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// App is a single document of the apps collection. It holds every stored
// field with its stored type, so fields absent from the document are absent
// from the record and its JSON form.
type App map[string]any

// Field names as stored in the collection.
const (
	FieldID          = "_id"
	FieldTitle       = "title"
	FieldImage       = "image"
	FieldRating      = "rating"
	FieldSize        = "size"
	FieldDownloads   = "downloads"
	FieldDescription = "description"

	// FieldLegacyID is the application level "id" some documents carry next
	// to "_id".
	FieldLegacyID = "id"
)

// ListFields is the projection applied to listing results. The identifier is
// always returned by the store.
var ListFields = []string{
	FieldLegacyID,
	FieldTitle,
	FieldImage,
	FieldRating,
	FieldSize,
	FieldDownloads,
	FieldDescription,
}

// ID returns the stored identifier, or nil when the document has none.
func (a App) ID() any {
	return a[FieldID]
}

// IDHex returns the textual form of the identifier: the hex string of an
// object id, the value itself for strings, "" when there is no identifier.
func (a App) IDHex() string {
	switch id := a[FieldID].(type) {
	case nil:
		return ""
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	default:
		return fmt.Sprint(id)
	}
}

// Title returns the title when it is stored as a string.
func (a App) Title() string {
	s, _ := a[FieldTitle].(string)
	return s
}

// Value returns the value of the named field, or nil when it is missing.
func (a App) Value(field string) any {
	return a[field]
}

// Project returns a copy of a holding only the identifier and the named
// fields. Fields missing from a stay missing.
func (a App) Project(fields []string) App {
	out := make(App, len(fields)+1)
	if id, ok := a[FieldID]; ok {
		out[FieldID] = id
	}
	for _, f := range fields {
		if v, ok := a[f]; ok {
			out[f] = v
		}
	}
	return out
}

// Clone returns a shallow copy of a.
func (a App) Clone() App {
	if a == nil {
		return nil
	}
	return maps.Clone(a)
}

// ListResult is the envelope returned by a listing. TotalApps counts every
// record matching the filter and ignores skip and limit.
type ListResult struct {
	Apps      []App `json:"apps"`
	TotalApps int64 `json:"totalApps"`
}
