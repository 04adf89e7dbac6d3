package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"

	"github.com/shashiranjanraj/orderdesk/app/jobs"
	"github.com/shashiranjanraj/orderdesk/app/resources"
	"github.com/shashiranjanraj/orderdesk/app/services"
	"github.com/shashiranjanraj/orderdesk/pkg/bind"
	"github.com/shashiranjanraj/orderdesk/pkg/form"
	"github.com/shashiranjanraj/orderdesk/pkg/queue"
	"github.com/shashiranjanraj/orderdesk/pkg/resource"
	"github.com/shashiranjanraj/orderdesk/pkg/response"
	"github.com/shashiranjanraj/orderdesk/pkg/storage"
	"github.com/shashiranjanraj/orderdesk/pkg/table"
)

// OrderController serves the order resource: listing, the live form and
// writes.
type OrderController struct {
	orders *services.OrderService
	form   *form.Schema
}

func NewOrderController(orders *services.OrderService, catalog resources.Catalog) *OrderController {
	return &OrderController{orders: orders, form: resources.OrderForm(catalog)}
}

// formPayload is the state plus its rendered schema.
func (c *OrderController) formPayload(ctx context.Context, st form.State) (map[string]any, error) {
	st = c.form.Fill(st)
	desc, err := c.form.Describe(ctx, st)
	if err != nil {
		return nil, err
	}
	return map[string]any{"state": st, "schema": desc}, nil
}

// Index lists orders with the table's filters, search, sort and paging.
func (c *OrderController) Index(w http.ResponseWriter, r *http.Request) {
	items, page, p, err := c.orders.List(r.Context(), table.ParseParams(r.URL.Query()))
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, map[string]any{
		"items":      resource.Collection(resources.OrderRow, items),
		"pagination": page,
		"table":      resources.OrderTable().Describe(p),
	})
}

// Form returns a fresh create form.
func (c *OrderController) Form(w http.ResponseWriter, r *http.Request) {
	out, err := c.formPayload(r.Context(), nil)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, out)
}

type formUpdateRequest struct {
	State form.State `json:"state"`
	Path  string     `json:"path"`
	Value any        `json:"value"`
}

// FormUpdate applies one field edit and returns the recalculated form.
func (c *OrderController) FormUpdate(w http.ResponseWriter, r *http.Request) {
	var body formUpdateRequest
	if err := bind.Decode(r, &body); err != nil {
		fail(w, r, err)
		return
	}
	if body.Path == "" {
		response.ValidationError(w, map[string]string{"path": "The path field is required."})
		return
	}

	st, err := c.form.Update(r.Context(), body.State, body.Path, body.Value)
	if err != nil {
		fail(w, r, err)
		return
	}
	out, err := c.formPayload(r.Context(), st)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, out)
}

func (c *OrderController) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		response.NotFound(w)
		return
	}
	o, err := c.orders.Find(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	resource.Respond(w, resources.OrderDetail, o)
}

// EditForm returns the edit form filled from the stored order.
func (c *OrderController) EditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		response.NotFound(w)
		return
	}
	o, err := c.orders.Find(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	out, err := c.formPayload(r.Context(), resources.OrderState(o))
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, out)
}

// input decodes a submitted form state, validates it against the form and
// reads it into an OrderInput.
func (c *OrderController) input(w http.ResponseWriter, r *http.Request) (services.OrderInput, bool) {
	var st form.State
	if err := bind.Decode(r, &st); err != nil {
		fail(w, r, err)
		return services.OrderInput{}, false
	}
	st = c.form.Fill(st)
	errs, err := c.form.Validate(r.Context(), st)
	if err != nil {
		fail(w, r, err)
		return services.OrderInput{}, false
	}
	if len(errs) > 0 {
		response.ValidationError(w, errs)
		return services.OrderInput{}, false
	}
	return services.InputFromState(st), true
}

func (c *OrderController) Store(w http.ResponseWriter, r *http.Request) {
	in, ok := c.input(w, r)
	if !ok {
		return
	}
	o, err := c.orders.Create(r.Context(), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	resource.RespondCreated(w, resources.OrderDetail, o)
}

func (c *OrderController) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		response.NotFound(w)
		return
	}
	in, ok := c.input(w, r)
	if !ok {
		return
	}
	o, err := c.orders.Update(r.Context(), id, in)
	if err != nil {
		fail(w, r, err)
		return
	}
	resource.Respond(w, resources.OrderDetail, o)
}

func (c *OrderController) Destroy(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		response.NotFound(w)
		return
	}
	if err := c.orders.Delete(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}
	response.NoContent(w)
}

type bulkDeleteRequest struct {
	IDs []uint `json:"ids"`
}

// BulkDestroy deletes every listed order and reports how many existed.
func (c *OrderController) BulkDestroy(w http.ResponseWriter, r *http.Request) {
	var body bulkDeleteRequest
	if err := bind.Decode(r, &body); err != nil {
		fail(w, r, err)
		return
	}
	n, err := c.orders.BulkDelete(r.Context(), body.IDs)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, map[string]any{"deleted": n})
}

// Export queues a CSV export of the orders matching the table query.
func (c *OrderController) Export(w http.ResponseWriter, r *http.Request) {
	p := resources.OrderTable().Normalize(table.ParseParams(r.URL.Query()))
	job := jobs.NewExportOrdersJob(p)
	if err := queue.Dispatch(r.Context(), jobs.ExportOrders, job); err != nil {
		fail(w, r, err)
		return
	}
	response.Accepted(w, map[string]any{"path": job.Path, "url": storage.Default().URL(job.Path)})
}

// Exports lists finished export files, newest first.
func (c *OrderController) Exports(w http.ResponseWriter, r *http.Request) {
	files, err := storage.Default().Files(r.Context(), jobs.ExportDir)
	if err != nil {
		fail(w, r, err)
		return
	}
	if files == nil {
		files = []storage.File{}
	}
	response.Success(w, files)
}

// Download streams one export file from the storage disk.
func (c *OrderController) Download(w http.ResponseWriter, r *http.Request) {
	name := path.Base(chi.URLParam(r, "*"))
	if name == "." || name == "/" {
		response.NotFound(w)
		return
	}
	rc, err := storage.Default().Get(r.Context(), jobs.ExportDir+"/"+name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			response.NotFound(w)
			return
		}
		fail(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	io.Copy(w, rc) //nolint:errcheck
}
