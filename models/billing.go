package models

// CheckoutRequest starts a Stripe checkout for one of the prices in PriceTable.
type CheckoutRequest struct {
	PriceID string `json:"priceId" binding:"required"`
}

// WordPressCredentials identify a WordPress site plus an application password.
type WordPressCredentials struct {
	SiteURL     string `json:"siteUrl" binding:"required"`
	Username    string `json:"username" binding:"required"`
	AppPassword string `json:"appPassword" binding:"required"`
}

// WordPressPublishRequest publishes a stored article to a WordPress site.
type WordPressPublishRequest struct {
	WordPressCredentials
	ArticleID string `json:"articleId" binding:"required"`
	Status    string `json:"status"`
}
