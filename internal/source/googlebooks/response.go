package googlebooks

import "encoding/json"

// volumesResponse はボリューム検索APIのレスポンス。
type volumesResponse struct {
	TotalItems int      `json:"totalItems"`
	Items      []volume `json:"items"`
}

type volume struct {
	ID         string     `json:"id"`
	VolumeInfo volumeInfo `json:"volumeInfo"`
	SaleInfo   saleInfo   `json:"saleInfo"`
}

type volumeInfo struct {
	Title         string      `json:"title"`
	Authors       []string    `json:"authors"`
	Publisher     string      `json:"publisher"`
	PublishedDate string      `json:"publishedDate"`
	Description   string      `json:"description"`
	PageCount     int         `json:"pageCount"`
	ImageLinks    *imageLinks `json:"imageLinks"`
	SeriesInfo    *seriesInfo `json:"seriesInfo"`
}

type imageLinks struct {
	SmallThumbnail string `json:"smallThumbnail"`
	Thumbnail      string `json:"thumbnail"`
}

type seriesInfo struct {
	ShortSeriesBookTitle string `json:"shortSeriesBookTitle"`
	BookDisplayNumber    string `json:"bookDisplayNumber"`
}

type saleInfo struct {
	ListPrice   *money `json:"listPrice"`
	RetailPrice *money `json:"retailPrice"`
}

type money struct {
	Amount       float64 `json:"amount"`
	CurrencyCode string  `json:"currencyCode"`
}

// price は定価、なければ販売価格を返す。
func (s saleInfo) price() *money {
	if s.ListPrice != nil {
		return s.ListPrice
	}
	return s.RetailPrice
}

// apiError はエラーレスポンスから取り出したメッセージと理由。
type apiError struct {
	Message string
	Reason  string
}

// parseAPIError はGoogle APIのエラーレスポンスを解釈する。
// JSONでない場合は空のapiErrorを返す。
func parseAPIError(body []byte) apiError {
	var resp struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
			Errors  []struct {
				Reason  string `json:"reason"`
				Message string `json:"message"`
			} `json:"errors"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return apiError{}
	}

	out := apiError{Message: resp.Error.Message}
	if len(resp.Error.Errors) > 0 {
		out.Reason = resp.Error.Errors[0].Reason
		if out.Message == "" {
			out.Message = resp.Error.Errors[0].Message
		}
	}
	return out
}
