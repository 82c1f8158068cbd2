package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/jaekwang-park/listo/internal/model"
)

type checklistsResponse struct {
	Checklists []model.Checklist `json:"checklists"`
}

type checklistResponse struct {
	Checklist model.Checklist `json:"checklist"`
}

type shareCodeResponse struct {
	Code string `json:"code"`
}

type createChecklistRequest struct {
	Title string `json:"title"`
}

type updateChecklistRequest struct {
	Title  string `json:"title"`
	Locked bool   `json:"locked"`
}

func (c *Client) ListChecklists(ctx context.Context) ([]model.Checklist, error) {
	var resp checklistsResponse
	if err := c.do(ctx, "get checklists", http.MethodGet, "/checklists", nil, nil, &resp); err != nil {
		return nil, err
	}
	return nonNil(resp.Checklists), nil
}

func (c *Client) ListSharedChecklists(ctx context.Context) ([]model.Checklist, error) {
	var resp checklistsResponse
	if err := c.do(ctx, "get shared checklists", http.MethodGet, "/checklists/shared", nil, nil, &resp); err != nil {
		return nil, err
	}
	return nonNil(resp.Checklists), nil
}

func (c *Client) GetChecklist(ctx context.Context, checklistID string, shared bool) (model.ChecklistDetail, error) {
	var resp model.ChecklistDetail
	if err := c.do(ctx, "get checklist", http.MethodGet, checklistPath(checklistID, shared, ""), nil, nil, &resp); err != nil {
		return model.ChecklistDetail{}, err
	}
	if resp.Items == nil {
		resp.Items = []model.Item{}
	}
	return resp, nil
}

func (c *Client) CreateChecklist(ctx context.Context, title string) (model.Checklist, error) {
	var resp checklistResponse
	err := c.do(ctx, "create checklist", http.MethodPost, "/checklist", nil, createChecklistRequest{Title: title}, &resp)
	if err != nil {
		return model.Checklist{}, err
	}
	return resp.Checklist, nil
}

func (c *Client) UpdateChecklist(ctx context.Context, checklistID string, shared bool, title string, locked bool) (model.Checklist, error) {
	var resp checklistResponse
	body := updateChecklistRequest{Title: title, Locked: locked}
	if err := c.do(ctx, "update checklist", http.MethodPut, checklistPath(checklistID, shared, ""), nil, body, &resp); err != nil {
		return model.Checklist{}, err
	}
	return resp.Checklist, nil
}

func (c *Client) DeleteChecklist(ctx context.Context, checklistID string) error {
	return c.do(ctx, "delete checklist", http.MethodDelete, checklistPath(checklistID, false, ""), nil, nil, nil)
}

func (c *Client) GetShareCode(ctx context.Context, checklistID string) (string, error) {
	var resp shareCodeResponse
	if err := c.do(ctx, "get share code", http.MethodGet, checklistPath(checklistID, false, "/share"), nil, nil, &resp); err != nil {
		return "", err
	}
	return resp.Code, nil
}

func (c *Client) JoinSharedChecklist(ctx context.Context, shortCode string) error {
	return c.do(ctx, "add user to shared list", http.MethodPost, "/checklist/share/"+url.PathEscape(shortCode), nil, nil, nil)
}

func (c *Client) LeaveSharedChecklist(ctx context.Context, checklistID string) error {
	return c.do(ctx, "leave checklist", http.MethodDelete, checklistPath(checklistID, true, "/user"), nil, nil, nil)
}

func nonNil(lists []model.Checklist) []model.Checklist {
	if lists == nil {
		return []model.Checklist{}
	}
	return lists
}
