package catalogapi

import (
	"bytes"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"atelier-admin/internal/domain"
	"atelier-admin/pkg/utils"

	"github.com/goccy/go-json"
)

var colorKeyRegex = regexp.MustCompile(`(?i)color`)

// number accepts a JSON number or a numeric string. Anything else is unset.
type number struct {
	v *float64
}

func (n *number) UnmarshalJSON(b []byte) error {
	n.v = nil
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		n.v = &f
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			n.v = &f
		}
	}
	return nil
}

// text accepts a string, a number or a bool and keeps its printed form.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	*t = text(stringify(b))
	return nil
}

// images accepts either a list of URLs or a single URL.
type images []string

func (im *images) UnmarshalJSON(b []byte) error {
	var list []text
	if err := json.Unmarshal(b, &list); err == nil {
		out := make([]string, 0, len(list))
		for _, s := range list {
			if v := strings.TrimSpace(string(s)); v != "" {
				out = append(out, v)
			}
		}
		*im = out
		return nil
	}
	if s := strings.TrimSpace(stringify(b)); s != "" {
		*im = images{s}
		return nil
	}
	*im = nil
	return nil
}

type rawPair struct {
	Name  text `json:"name"`
	Value text `json:"value"`
}

type rawSelection struct {
	Selected text `json:"selected"`
}

type rawVariant struct {
	MongoID        text                       `json:"_id"`
	ID             text                       `json:"id"`
	OptionsArray   []rawPair                  `json:"optionsArray"`
	Options        json.RawMessage            `json:"options"`
	Size           text                       `json:"size"`
	Karat          text                       `json:"karat"`
	Metal          text                       `json:"metal"`
	Finish         text                       `json:"finish"`
	Attributes     map[string]json.RawMessage `json:"attributes"`
	MetalColor     *rawSelection              `json:"metalColor"`
	CustomOptions  map[string]json.RawMessage `json:"customOptions"`
	SKU            text                       `json:"sku"`
	Price          number                     `json:"price"`
	CompareAtPrice number                     `json:"compareAtPrice"`
	Inventory      number                     `json:"inventory"`
	ManageStock    *bool                      `json:"manageStock"`
	Images         images                     `json:"images"`
}

type rawSchema struct {
	Name   text   `json:"name"`
	Values []text `json:"values"`
}

type rawListing struct {
	Data           json.RawMessage `json:"data"`
	Variants       []rawVariant    `json:"variants"`
	VariantOptions []rawSchema     `json:"variantOptions"`
}

// DecodeListing parses a variant listing response. The payload may be wrapped
// in a {"data": {...}} envelope.
func DecodeListing(body []byte) (*domain.VariantListing, error) {
	var raw rawListing
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	if isObject(raw.Data) {
		var inner rawListing
		if err := json.Unmarshal(raw.Data, &inner); err != nil {
			return nil, err
		}
		raw = inner
	}

	listing := &domain.VariantListing{
		Variants: make([]domain.PersistedVariant, 0, len(raw.Variants)),
		Options:  make([]domain.OptionSchema, 0, len(raw.VariantOptions)),
	}
	for _, v := range raw.Variants {
		listing.Variants = append(listing.Variants, normalizeVariant(v))
	}
	for _, o := range raw.VariantOptions {
		name := strings.TrimSpace(string(o.Name))
		if name == "" {
			continue
		}
		values := make([]string, 0, len(o.Values))
		for _, v := range o.Values {
			values = append(values, string(v))
		}
		listing.Options = append(listing.Options, domain.OptionSchema{Name: name, Values: values})
	}
	return listing, nil
}

func normalizeVariant(v rawVariant) domain.PersistedVariant {
	id := strings.TrimSpace(string(v.MongoID))
	if id == "" {
		id = strings.TrimSpace(string(v.ID))
	}
	compareAt := v.CompareAtPrice.v
	if compareAt == nil {
		if raw, ok := v.Attributes["compareAtPrice"]; ok {
			var n number
			_ = n.UnmarshalJSON(raw)
			compareAt = n.v
		}
	}
	manageStock := true
	if v.ManageStock != nil {
		manageStock = *v.ManageStock
	}
	imgs := []string(v.Images)
	if imgs == nil {
		imgs = []string{}
	}
	return domain.PersistedVariant{
		ID:             id,
		Options:        attributePairs(v),
		SKU:            string(v.SKU),
		Price:          v.Price.v,
		CompareAtPrice: compareAt,
		Inventory:      v.Inventory.v,
		ManageStock:    manageStock,
		Images:         imgs,
	}
}

// attributePairs extracts the option pairs of a record: the ordered pair
// list when present, else the options object, else legacy jewelry fields.
func attributePairs(v rawVariant) []domain.OptionPair {
	pairs := make([]domain.OptionPair, 0, 4)
	add := func(name, value string) {
		name, value = strings.TrimSpace(name), strings.TrimSpace(value)
		if name != "" && value != "" {
			pairs = append(pairs, domain.OptionPair{Name: name, Value: value})
		}
	}

	if len(v.OptionsArray) > 0 {
		for _, p := range v.OptionsArray {
			add(string(p.Name), string(p.Value))
		}
		return pairs
	}

	if isObject(v.Options) {
		var opts map[string]json.RawMessage
		if err := json.Unmarshal(v.Options, &opts); err == nil {
			for _, name := range sortedKeys(opts) {
				add(name, stringify(opts[name]))
			}
			return pairs
		}
	}

	add("size", string(v.Size))
	add("karat", string(v.Karat))
	add("metal", string(v.Metal))
	add("finish", string(v.Finish))
	add("color", legacyColor(v))
	return pairs
}

func legacyColor(v rawVariant) string {
	for _, key := range []string{"Color", "Metal Color"} {
		if raw, ok := v.Attributes[key]; ok {
			if s := stringify(raw); s != "" {
				return s
			}
		}
	}
	if v.MetalColor != nil && v.MetalColor.Selected != "" {
		return string(v.MetalColor.Selected)
	}
	for _, key := range sortedKeys(v.CustomOptions) {
		if colorKeyRegex.MatchString(key) {
			return stringify(v.CustomOptions[key])
		}
	}
	return ""
}

func stringify(b []byte) string {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		return s
	}
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	var ok bool
	if err := json.Unmarshal(b, &ok); err == nil {
		return strconv.FormatBool(ok)
	}
	return ""
}

func isObject(b json.RawMessage) bool {
	b = bytes.TrimSpace(b)
	return len(b) > 0 && b[0] == '{'
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// --- Products ---

type rawProduct struct {
	MongoID   text            `json:"_id"`
	ID        text            `json:"id"`
	PostTitle text            `json:"post_title"`
	Title     text            `json:"title"`
	Name      text            `json:"name"`
	Slug      text            `json:"slug"`
	Price     number          `json:"price"`
	Stock     number          `json:"stock"`
	Images    images          `json:"images"`
	Variants  json.RawMessage `json:"variants"`
}

type rawProductPage struct {
	Products json.RawMessage `json:"products"`
	Data     json.RawMessage `json:"data"`
	Items    json.RawMessage `json:"items"`
	Total    number          `json:"total"`
	Count    number          `json:"count"`
}

// DecodeProductPage parses one page of the product listing. Products may be
// under "products", "data" or "items"; the total under "total" or "count".
func DecodeProductPage(body []byte) (*domain.ProductPage, error) {
	var raw rawProductPage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}

	page := &domain.ProductPage{Products: []domain.ProductSummary{}}
	for _, list := range []json.RawMessage{raw.Products, raw.Data, raw.Items} {
		if !isArray(list) {
			continue
		}
		var products []rawProduct
		if err := json.Unmarshal(list, &products); err != nil {
			return nil, err
		}
		for _, p := range products {
			page.Products = append(page.Products, normalizeProduct(p))
		}
		break
	}

	total := raw.Total.v
	if total == nil {
		total = raw.Count.v
	}
	if total != nil {
		n := int64(*total)
		page.Total = &n
	}
	return page, nil
}

func normalizeProduct(p rawProduct) domain.ProductSummary {
	id := string(p.MongoID)
	if id == "" {
		id = string(p.ID)
	}
	name := string(p.PostTitle)
	if name == "" {
		name = string(p.Title)
	}
	if name == "" {
		name = string(p.Name)
	}
	var image string
	if len(p.Images) > 0 {
		// Legacy image strings carry " ! alt : ..." after the URL.
		image = strings.TrimSpace(strings.SplitN(p.Images[0], " !", 2)[0])
	}
	slug := string(p.Slug)
	if slug == "" {
		slug = utils.GenerateSlug(name)
	}
	count := 0
	if isArray(p.Variants) {
		var items []json.RawMessage
		if err := json.Unmarshal(p.Variants, &items); err == nil {
			count = len(items)
		}
	}
	return domain.ProductSummary{
		ID:           id,
		Name:         name,
		Slug:         slug,
		Price:        p.Price.v,
		Stock:        p.Stock.v,
		Image:        image,
		VariantCount: count,
	}
}

func isArray(b json.RawMessage) bool {
	b = bytes.TrimSpace(b)
	return len(b) > 0 && b[0] == '['
}

// --- Upsert response ---

type rawUpsertResult struct {
	Counts *struct {
		Created int `json:"created"`
		Updated int `json:"updated"`
	} `json:"counts"`
	Data *struct {
		Counts *struct {
			Created int `json:"created"`
			Updated int `json:"updated"`
		} `json:"counts"`
	} `json:"data"`
}

// DecodeUpsertResult reads the created/updated counts of a bulk upsert.
// Missing counts read as zero.
func DecodeUpsertResult(body []byte) *domain.UpsertResult {
	res := &domain.UpsertResult{}
	if len(bytes.TrimSpace(body)) == 0 {
		return res
	}
	var raw rawUpsertResult
	if err := json.Unmarshal(body, &raw); err != nil {
		return res
	}
	switch {
	case raw.Counts != nil:
		res.Created, res.Updated = raw.Counts.Created, raw.Counts.Updated
	case raw.Data != nil && raw.Data.Counts != nil:
		res.Created, res.Updated = raw.Data.Counts.Created, raw.Data.Counts.Updated
	}
	return res
}

// DecodeImages reads the image list returned by an image upload.
func DecodeImages(body []byte) []string {
	var raw struct {
		Images images `json:"images"`
		Data   *struct {
			Images images `json:"images"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return []string{}
	}
	if raw.Images != nil {
		return raw.Images
	}
	if raw.Data != nil && raw.Data.Images != nil {
		return raw.Data.Images
	}
	return []string{}
}
