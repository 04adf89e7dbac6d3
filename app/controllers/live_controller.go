package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/shashiranjanraj/orderdesk/app/resources"
	"github.com/shashiranjanraj/orderdesk/pkg/form"
	"github.com/shashiranjanraj/orderdesk/pkg/response"
	"github.com/shashiranjanraj/orderdesk/pkg/ws"
)

// LiveController serves the websocket endpoints: the live order form and
// the orders feed.
type LiveController struct {
	orders *OrderController
	feed   *ws.Hub
}

func NewLiveController(orders *OrderController, feed *ws.Hub) *LiveController {
	return &LiveController{orders: orders, feed: feed}
}

// formFrame is one client edit. A frame carrying State replaces the
// session state before Path is applied.
type formFrame struct {
	State form.State `json:"state,omitempty"`
	Path  string     `json:"path"`
	Value any        `json:"value"`
}

type formReply struct {
	State  form.State         `json:"state,omitempty"`
	Schema []form.Description `json:"schema,omitempty"`
	Error  string             `json:"error,omitempty"`
	Path   string             `json:"path,omitempty"`
}

// FormSession runs a live order form over a websocket. The session starts
// from a fresh form, or from a stored order with ?order=<id>. Rejected
// edits are answered with an error frame and leave the state unchanged.
func (c *LiveController) FormSession(w http.ResponseWriter, r *http.Request) {
	st := form.State{}
	if raw := r.URL.Query().Get("order"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			response.NotFound(w)
			return
		}
		o, err := c.orders.orders.Find(r.Context(), uint(id))
		if err != nil {
			fail(w, r, err)
			return
		}
		st = resources.OrderState(o)
	}
	st = c.orders.form.Fill(st)

	ws.Serve(w, r, func(ctx context.Context, msg []byte) ([]byte, error) {
		var frame formFrame
		dec := json.NewDecoder(bytes.NewReader(msg))
		dec.UseNumber()
		if err := dec.Decode(&frame); err != nil {
			return json.Marshal(formReply{Error: "invalid JSON frame"})
		}

		if frame.State != nil {
			st = c.orders.form.Fill(frame.State)
		}
		if frame.Path != "" {
			next, err := c.orders.form.Update(ctx, st, frame.Path, frame.Value)
			if err != nil {
				if !isFormError(err) {
					return nil, err
				}
				return json.Marshal(formReply{Error: err.Error(), Path: frame.Path})
			}
			st = next
		}

		desc, err := c.orders.form.Describe(ctx, st)
		if err != nil {
			return nil, err
		}
		return json.Marshal(formReply{State: st, Schema: desc})
	})
}

// Feed subscribes the connection to order write notifications.
func (c *LiveController) Feed(w http.ResponseWriter, r *http.Request) {
	c.feed.Upgrade(w, r)
}
