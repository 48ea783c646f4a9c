// Package enrich 是外部元数据补全的出站客户端：按标题查询封面图、
// 详情与至多 5 条相关推荐。网络失败、非 200 状态、解码失败一律
// 归一为"未找到"，错误绝不以其他形态越过此边界。
//
// 排序对本地数据是纯函数；补全只作用于已分页的结果页，单条失败
// 降级为占位图，不影响整页。
package enrich

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/rushteam/animerec/core"
)

// Placeholder 是补全失败时的占位图。
const Placeholder = "https://via.placeholder.com/150?text=No+Image"

// MaxRelated 是单次查询返回的相关推荐上限。
const MaxRelated = 5

// RelatedAnime 是外部服务给出的一条相关推荐。
type RelatedAnime struct {
	Title    string `json:"title"`
	ImageURL string `json:"image_url"`
}

// Details 是外部服务返回的条目详情。
type Details struct {
	Title    string         `json:"title"`
	ImageURL string         `json:"image_url"`
	Score    float64        `json:"score"`
	Type     string         `json:"type"`
	Episodes int            `json:"episodes"`
	Related  []RelatedAnime `json:"related"`
}

// Client 访问 MAL v2 风格的元数据 API。
// 每次调用受 http.Client 超时与请求 context 双重限制，
// 单个慢查询不会拖住整页。
type Client struct {
	baseURL  string
	clientID string // X-MAL-CLIENT-ID，可为空
	client   *http.Client
}

func NewClient(baseURL, clientID string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL:  baseURL,
		clientID: clientID,
		client:   &http.Client{Timeout: timeout},
	}
}

// 搜索/详情/推荐接口的响应结构（只解码用到的字段）。
type searchResponse struct {
	Data []struct {
		Node nodePayload `json:"node"`
	} `json:"data"`
}

type nodePayload struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Mean        float64 `json:"mean"`
	MediaType   string  `json:"media_type"`
	NumEpisodes int     `json:"num_episodes"`
	MainPicture struct {
		Medium string `json:"medium"`
	} `json:"main_picture"`
}

// Lookup 按标题查询详情与相关推荐。
// 搜索无结果或搜索/详情请求失败 → ErrEnrichNotFound；
// 推荐子请求失败只导致 Related 为空，不影响详情。
func (c *Client) Lookup(ctx context.Context, title string) (*Details, error) {
	node, err := c.search(ctx, title)
	if err != nil {
		return nil, err
	}

	var detail nodePayload
	detailURL := fmt.Sprintf("%s/anime/%d?fields=title,main_picture,mean,media_type,num_episodes", c.baseURL, node.ID)
	if err := c.getJSON(ctx, detailURL, &detail); err != nil {
		return nil, core.ErrEnrichNotFound
	}

	out := &Details{
		Title:    detail.Title,
		ImageURL: detail.MainPicture.Medium,
		Score:    detail.Mean,
		Type:     detail.MediaType,
		Episodes: detail.NumEpisodes,
	}
	if out.Type == "" {
		out.Type = "Unknown"
	}

	var rec searchResponse
	recURL := fmt.Sprintf("%s/anime/%d/recommendations?limit=%d", c.baseURL, node.ID, MaxRelated)
	if err := c.getJSON(ctx, recURL, &rec); err == nil {
		for _, entry := range rec.Data {
			if len(out.Related) >= MaxRelated {
				break
			}
			out.Related = append(out.Related, RelatedAnime{
				Title:    entry.Node.Title,
				ImageURL: entry.Node.MainPicture.Medium,
			})
		}
	}
	return out, nil
}

// Image 按标题查询封面图（仅一次搜索调用，页内逐条补全用）。
// 失败返回 ErrEnrichNotFound，调用方降级为 Placeholder。
func (c *Client) Image(ctx context.Context, title string) (string, error) {
	node, err := c.search(ctx, title)
	if err != nil {
		return "", err
	}
	if node.MainPicture.Medium == "" {
		return "", core.ErrEnrichNotFound
	}
	return node.MainPicture.Medium, nil
}

func (c *Client) search(ctx context.Context, title string) (*nodePayload, error) {
	searchURL := fmt.Sprintf("%s/anime?q=%s&limit=1", c.baseURL, url.QueryEscape(title))
	var res searchResponse
	if err := c.getJSON(ctx, searchURL, &res); err != nil {
		return nil, core.ErrEnrichNotFound
	}
	if len(res.Data) == 0 {
		return nil, core.ErrEnrichNotFound
	}
	return &res.Data[0].Node, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	if c.clientID != "" {
		req.Header.Set("X-MAL-CLIENT-ID", c.clientID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("enrich: status=%s", strconv.Itoa(resp.StatusCode))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
