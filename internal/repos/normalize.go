package repos

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/tidwall/gjson"

	"rentalhub/internal/domain"
)

// The backend is inconsistent about key casing (camelCase, PascalCase,
// snake_case) and about wrapping payloads in data/Data. Everything below maps
// one raw gjson value to one canonical domain struct; nothing past this file
// sees raw keys.

func variants(key string) []string {
	out := []string{key}
	if key == "" {
		return out
	}
	r := []rune(key)
	pascal := string(unicode.ToUpper(r[0])) + string(r[1:])
	if pascal != key {
		out = append(out, pascal)
	}
	var snake strings.Builder
	for i, c := range r {
		if unicode.IsUpper(c) {
			if i > 0 {
				snake.WriteByte('_')
			}
			snake.WriteRune(unicode.ToLower(c))
			continue
		}
		snake.WriteRune(c)
	}
	if s := snake.String(); s != key {
		out = append(out, s)
	}
	return out
}

// field returns the first present key among names and their casing variants.
func field(r gjson.Result, names ...string) gjson.Result {
	if !r.IsObject() {
		return gjson.Result{}
	}
	for _, n := range names {
		for _, k := range variants(n) {
			if v := r.Get(gjson.Escape(k)); v.Exists() && v.Type != gjson.Null {
				return v
			}
		}
	}
	return gjson.Result{}
}

func str(r gjson.Result, names ...string) string {
	v := field(r, names...)
	if v.Type == gjson.Number {
		return v.Raw
	}
	return strings.TrimSpace(v.String())
}

func num(r gjson.Result, names ...string) float64 {
	v := field(r, names...)
	if v.Type == gjson.String {
		f, _ := strconv.ParseFloat(strings.ReplaceAll(v.Str, ",", ""), 64)
		return f
	}
	return v.Float()
}

func integer(r gjson.Result, names ...string) int {
	return int(num(r, names...))
}

func boolean(r gjson.Result, names ...string) bool {
	v := field(r, names...)
	switch v.Type {
	case gjson.String:
		b, _ := strconv.ParseBool(v.Str)
		return b
	default:
		return v.Bool()
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func timeOf(r gjson.Result, names ...string) time.Time {
	v := field(r, names...)
	switch v.Type {
	case gjson.Number:
		// epoch millis
		return time.UnixMilli(v.Int()).UTC()
	case gjson.String:
		for _, l := range timeLayouts {
			if t, err := time.Parse(l, v.Str); err == nil {
				return t.UTC()
			}
		}
	}
	return time.Time{}
}

func id(r gjson.Result) string {
	if s := str(r, "id", "_id"); s != "" {
		return s
	}
	return str(r, "ID")
}

// ref reads a reference that may be a bare id or an embedded object.
func ref(r gjson.Result, idNames []string, objName string) string {
	if s := str(r, idNames...); s != "" {
		return s
	}
	if o := field(r, objName); o.IsObject() {
		return id(o)
	} else if o.Exists() {
		return strings.TrimSpace(o.String())
	}
	return ""
}

// payload strips a data/Data envelope.
func payload(r gjson.Result) gjson.Result {
	if d := field(r, "data"); d.Exists() {
		return d
	}
	return r
}

// list finds the array in either a bare array or a paging object.
func list(r gjson.Result) []gjson.Result {
	if r.IsArray() {
		return r.Array()
	}
	for _, k := range []string{"items", "results", "rows", "products", "categories", "discounts", "conversations", "messages", "requests"} {
		if v := field(r, k); v.IsArray() {
			return v.Array()
		}
	}
	return nil
}

func stringList(r gjson.Result) []string {
	var out []string
	switch {
	case r.IsArray():
		for _, v := range r.Array() {
			s := v.String()
			if v.IsObject() {
				s = str(v, "name", "tag", "label")
			}
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	case r.Type == gjson.String:
		for _, s := range strings.Split(r.Str, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func priceUnit(s string) domain.PriceUnit {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hour", "hourly", "h", "giờ":
		return domain.PerHour
	case "week", "weekly", "w", "tuần":
		return domain.PerWeek
	case "month", "monthly", "m", "tháng":
		return domain.PerMonth
	default:
		return domain.PerDay
	}
}

func moderation(s string) domain.ModerationStatus {
	switch strings.ToLower(s) {
	case "approved", "active", "published":
		return domain.StatusApproved
	case "rejected":
		return domain.StatusRejected
	default:
		return domain.StatusPending
	}
}

func (c *Client) product(r gjson.Result) domain.Product {
	p := domain.Product{
		ID:                id(r),
		OwnerID:           ref(r, []string{"ownerId", "userId"}, "owner"),
		Title:             str(r, "title", "name"),
		ShortDescription:  str(r, "shortDescription"),
		Description:       str(r, "description"),
		BasePrice:         num(r, "basePrice", "price"),
		DepositAmount:     num(r, "depositAmount", "deposit"),
		Currency:          str(r, "currency"),
		PriceUnit:         priceUnit(str(r, "priceUnit", "rentalUnit")),
		Quantity:          integer(r, "quantity"),
		AvailableQuantity: integer(r, "availableQuantity", "available"),
		Condition:         str(r, "condition"),
		CategoryID:        ref(r, []string{"categoryId"}, "category"),
		Tags:              stringList(field(r, "tags")),
		ViewCount:         integer(r, "viewCount", "views"),
		FavoriteCount:     integer(r, "favoriteCount", "favorites"),
		RentCount:         integer(r, "rentCount", "rents"),
		IsHighlighted:     boolean(r, "isHighlighted", "isHighlight", "highlighted"),
		IsTrending:        boolean(r, "isTrending", "trending"),
		Status:            moderation(str(r, "status", "moderationStatus")),
		RejectReason:      str(r, "rejectReason", "rejectionReason"),
		CreatedAt:         timeOf(r, "createdAt"),
		UpdatedAt:         timeOf(r, "updatedAt"),
	}
	if p.Currency == "" {
		p.Currency = "VND"
	}
	if !field(r, "availableQuantity", "available").Exists() {
		p.AvailableQuantity = p.Quantity
	}
	for i, img := range field(r, "images").Array() {
		im := domain.Image{Order: i}
		if img.IsObject() {
			im.URL = c.AssetURL(str(img, "url", "imageUrl", "path"))
			im.IsPrimary = boolean(img, "isPrimary", "primary")
			if o := field(img, "order", "sortOrder", "ordinal"); o.Exists() {
				im.Order = int(o.Int())
			}
		} else {
			im.URL = c.AssetURL(img.String())
		}
		if im.URL != "" {
			p.Images = append(p.Images, im)
		}
	}
	loc := field(r, "location")
	if !loc.IsObject() {
		loc = r
	}
	p.Location = domain.Location{
		Address:  str(loc, "address"),
		City:     str(loc, "city"),
		District: str(loc, "district"),
		Province: str(loc, "province"),
	}
	return p
}

func (c *Client) category(r gjson.Result) domain.Category {
	cat := domain.Category{
		ID:       id(r),
		Name:     str(r, "name"),
		Slug:     str(r, "slug"),
		ParentID: ref(r, []string{"parentId"}, "parent"),
		Active:   true,
	}
	if a := field(r, "isActive", "active"); a.Exists() {
		cat.Active = boolean(r, "isActive", "active")
	}
	return cat
}

func (c *Client) cartItem(r gjson.Result) domain.CartItem {
	prod := field(r, "product", "item")
	it := domain.CartItem{
		ProductID:   ref(r, []string{"productId", "itemId"}, "product"),
		Quantity:    integer(r, "quantity"),
		RentalStart: timeOf(r, "rentalStartDate", "rentalStart", "startDate"),
		RentalEnd:   timeOf(r, "rentalEndDate", "rentalEnd", "endDate"),
	}
	if prod.IsObject() {
		it.Product = c.product(prod)
	}
	if it.Product.ID == "" {
		it.Product.ID = it.ProductID
	}
	if it.ProductID == "" {
		it.ProductID = it.Product.ID
	}
	return it
}

func party(r gjson.Result) domain.Party {
	return domain.Party{
		ID:       id(r),
		FullName: str(r, "fullName", "name"),
		Email:    str(r, "email"),
		Phone:    str(r, "phone", "phoneNumber"),
	}
}

func (c *Client) order(r gjson.Result) domain.Order {
	o := domain.Order{
		ID:              id(r),
		Renter:          party(field(r, "renter")),
		Owner:           party(field(r, "owner")),
		ShippingAddress: str(r, "shippingAddress", "deliveryAddress"),
		PaymentMethod:   str(r, "paymentMethod"),
		PaymentStatus:   str(r, "paymentStatus"),
		Status:          domain.OrderStatus(strings.ToLower(strings.ReplaceAll(str(r, "status", "orderStatus"), "-", "_"))),
		RentalTotal:     num(r, "rentalTotal", "subtotal"),
		ServiceFee:      num(r, "serviceFee", "tax", "taxAmount"),
		Deposit:         num(r, "deposit", "depositAmount", "totalDeposit"),
		GrandTotal:      num(r, "grandTotal", "totalAmount", "total"),
		CreatedAt:       timeOf(r, "createdAt"),
	}
	if it := field(r, "item", "itemSnapshot", "product"); it.IsObject() {
		o.Item = c.cartItem(it)
		if o.Item.Product.Title == "" {
			// snapshot carried product fields inline
			o.Item.Product = c.product(it)
			o.Item.ProductID = o.Item.Product.ID
		}
	}
	return o
}

func (c *Client) conversation(r gjson.Result) domain.Conversation {
	conv := domain.Conversation{
		ID:          id(r),
		LastMessage: str(r, "lastMessage"),
		UpdatedAt:   timeOf(r, "updatedAt", "lastMessageAt"),
	}
	if lm := field(r, "lastMessage"); lm.IsObject() {
		conv.LastMessage = str(lm, "content")
	}
	for _, p := range field(r, "participants", "members").Array() {
		u := p
		if inner := field(p, "user"); inner.IsObject() {
			u = inner
		}
		conv.Participants = append(conv.Participants, domain.Participant{
			ID:       id(u),
			FullName: str(u, "fullName", "name"),
			Avatar:   c.AssetURL(str(u, "avatar", "avatarUrl")),
		})
	}
	return conv
}

func message(r gjson.Result) domain.Message {
	return domain.Message{
		ID:             id(r),
		ConversationID: ref(r, []string{"conversationId", "roomId"}, "conversation"),
		SenderID:       ref(r, []string{"senderId"}, "sender"),
		Content:        str(r, "content", "text"),
		CreatedAt:      timeOf(r, "createdAt", "sentAt"),
	}
}

func discount(r gjson.Result) domain.Discount {
	d := domain.Discount{
		ID:            id(r),
		Code:          str(r, "code"),
		Type:          domain.DiscountFixed,
		Value:         num(r, "value", "discountValue"),
		MaxDiscount:   num(r, "maxDiscount", "maxDiscountAmount"),
		MinOrderValue: num(r, "minOrderValue"),
		UsageLimit:    integer(r, "usageLimit"),
		UsedCount:     integer(r, "usedCount", "usageCount"),
		StartsAt:      timeOf(r, "startsAt", "startDate", "validFrom"),
		EndsAt:        timeOf(r, "endsAt", "endDate", "validTo"),
		IsPublic:      boolean(r, "isPublic"),
		IsActive:      boolean(r, "isActive", "active"),
	}
	if t := strings.ToLower(str(r, "type", "discountType")); strings.HasPrefix(t, "percent") {
		d.Type = domain.DiscountPercent
	}
	for _, a := range field(r, "assignments", "users", "userDiscounts").Array() {
		if !a.IsObject() {
			d.Assignments = append(d.Assignments, domain.DiscountAssignment{UserID: a.String()})
			continue
		}
		d.Assignments = append(d.Assignments, domain.DiscountAssignment{
			UserID:    ref(a, []string{"userId"}, "user"),
			UsedCount: integer(a, "usedCount"),
		})
	}
	return d
}

func ownerRequest(r gjson.Result) domain.OwnerRequest {
	return domain.OwnerRequest{
		ID:           id(r),
		UserID:       ref(r, []string{"userId"}, "user"),
		ShopName:     str(r, "shopName", "businessName"),
		Reason:       str(r, "reason", "note"),
		Status:       domain.OwnerRequestStatus(strings.ToLower(str(r, "status"))),
		RejectReason: str(r, "rejectReason", "rejectionReason"),
		CreatedAt:    timeOf(r, "createdAt"),
	}
}

func (c *Client) profile(r gjson.Result) domain.Profile {
	return domain.Profile{
		ID:       id(r),
		Email:    str(r, "email"),
		FullName: str(r, "fullName", "name"),
		Phone:    str(r, "phone", "phoneNumber"),
		Avatar:   c.AssetURL(str(r, "avatar", "avatarUrl")),
		Role:     strings.ToLower(str(r, "role")),
	}
}
