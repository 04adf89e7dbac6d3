// Package resource provides API resource transformers: a function that
// decides the exact JSON shape of one model.
//
//	func OrderResource(o models.Order) resource.Map {
//	    return resource.Map{
//	        "id":          o.ID,
//	        "unique_code": o.UniqueCode,
//	        "links":       resource.Map{"self": fmt.Sprintf("/api/orders/%d", o.ID)},
//	    }
//	}
//
//	resource.Respond(w, OrderResource, order)
//	resource.RespondPage(w, OrderResource, orders, page)
package resource

import (
	"net/http"

	"github.com/shashiranjanraj/orderdesk/pkg/orm"
	"github.com/shashiranjanraj/orderdesk/pkg/response"
)

// Map is the output of a transformer.
type Map = map[string]any

// Transformer converts one model into its API shape.
type Transformer[T any] func(v T) Map

// Item transforms a single model.
func Item[T any](t Transformer[T], v T) Map { return t(v) }

// Collection transforms every model in items. A nil slice yields an empty
// list so clients never see null.
func Collection[T any](t Transformer[T], items []T) []Map {
	out := make([]Map, 0, len(items))
	for _, v := range items {
		out = append(out, t(v))
	}
	return out
}

// Respond writes the transformed model with status 200.
func Respond[T any](w http.ResponseWriter, t Transformer[T], v T) {
	response.Success(w, t(v))
}

// RespondCreated writes the transformed model with status 201.
func RespondCreated[T any](w http.ResponseWriter, t Transformer[T], v T) {
	response.Created(w, t(v))
}

// RespondPage writes a transformed page of models with pagination metadata.
func RespondPage[T any](w http.ResponseWriter, t Transformer[T], items []T, p orm.Pagination) {
	response.Paginated(w, Collection(t, items), p)
}
