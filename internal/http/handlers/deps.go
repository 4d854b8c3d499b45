package handlers

import (
	"rentalhub/internal/config"
	"rentalhub/internal/repos"
	"rentalhub/internal/services"
	"rentalhub/internal/store"
)

type Deps struct {
	Store *store.Store

	AuthHandler       *AuthHandler
	SearchHandler     *SearchHandler
	ProductHandler    *ProductHandler
	InventoryHandler  *InventoryHandler
	CartHandler       *CartHandler
	OrderHandler      *OrderHandler
	MessageHandler    *MessageHandler
	ModerationHandler *ModerationHandler
	CategoryHandler   *CategoryHandler
	AdminHandler      *AdminHandler
	ProfileHandler    *ProfileHandler
}

func NewDeps(cfg config.Config, api *repos.Client, st *store.Store, dial services.Dialer) *Deps {
	catRepo := repos.NewCategoryRepo(api)
	prodRepo := repos.NewProductRepo(api)
	cartRepo := repos.NewCartRepo(api)
	orderRepo := repos.NewOrderRepo(api)
	msgRepo := repos.NewMessageRepo(api)
	discountRepo := repos.NewDiscountRepo(api)
	requestRepo := repos.NewOwnerRequestRepo(api)
	userRepo := repos.NewUserRepo(api)

	catalogSvc := services.NewCatalogService(catRepo, prodRepo)
	cartSvc := services.NewCartService(cartRepo, st, cfg.CartDebounce)
	cartSvc.Products = prodRepo
	chatSvc := services.NewChatService(msgRepo, dial)
	modSvc := services.NewModerationService(prodRepo)
	st.OnEvict(chatSvc.Close)
	st.OnEvict(modSvc.Forget)

	return &Deps{
		Store:             st,
		AuthHandler:       &AuthHandler{Auth: services.NewAuthService(userRepo, st), Chat: chatSvc, Moderation: modSvc},
		SearchHandler:     &SearchHandler{Catalog: catalogSvc},
		ProductHandler:    &ProductHandler{Catalog: catalogSvc},
		InventoryHandler:  &InventoryHandler{Catalog: catalogSvc},
		CartHandler:       &CartHandler{Cart: cartSvc},
		OrderHandler:      &OrderHandler{Order: services.NewOrderService(orderRepo)},
		MessageHandler:    &MessageHandler{Chat: chatSvc},
		ModerationHandler: &ModerationHandler{Mod: modSvc},
		CategoryHandler:   &CategoryHandler{Cats: services.NewCategoryService(catRepo)},
		AdminHandler:      &AdminHandler{Discounts: services.NewDiscountService(discountRepo), Requests: services.NewOwnerRequestService(requestRepo)},
		ProfileHandler:    &ProfileHandler{Profile: services.NewProfileService(userRepo)},
	}
}
