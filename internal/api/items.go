package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jaekwang-park/listo/internal/model"
)

type itemResponse struct {
	Item model.Item `json:"item"`
}

type createItemRequest struct {
	Content  string `json:"content"`
	Ordering int    `json:"ordering"`
}

type updateItemRequest struct {
	Content  string `json:"content"`
	Checked  bool   `json:"checked"`
	Ordering int    `json:"ordering"`
}

func (c *Client) CreateItem(ctx context.Context, checklistID string, shared bool, content string, ordering int) (model.Item, error) {
	var resp itemResponse
	body := createItemRequest{Content: content, Ordering: ordering}
	if err := c.do(ctx, "create item", http.MethodPost, checklistPath(checklistID, shared, "/item"), nil, body, &resp); err != nil {
		return model.Item{}, err
	}
	return resp.Item, nil
}

// UpdateItem sends the item's content, checked state and ordering.
func (c *Client) UpdateItem(ctx context.Context, checklistID string, shared bool, item model.Item) (model.Item, error) {
	var resp itemResponse
	body := updateItemRequest{Content: item.Content, Checked: item.Checked, Ordering: item.Ordering}
	path := checklistPath(checklistID, shared, "/item/"+url.PathEscape(item.ID))
	if err := c.do(ctx, "update item", http.MethodPut, path, nil, body, &resp); err != nil {
		return model.Item{}, err
	}
	return resp.Item, nil
}

func (c *Client) ToggleAllItems(ctx context.Context, checklistID string, shared bool, checked bool) error {
	query := url.Values{"checked": {strconv.FormatBool(checked)}}
	return c.do(ctx, "toggle all items", http.MethodPut, checklistPath(checklistID, shared, "/items"), query, nil, nil)
}

func (c *Client) DeleteItem(ctx context.Context, checklistID string, shared bool, itemID string) error {
	path := checklistPath(checklistID, shared, "/item/"+url.PathEscape(itemID))
	return c.do(ctx, "delete item", http.MethodDelete, path, nil, nil, nil)
}
