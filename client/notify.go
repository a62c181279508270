package client

import (
	"sync"
)

// Notification is a browser-style notification with a single primary
// action button.
type Notification struct {
	ID      string
	Title   string
	Message string
	Button  string
}

// Notifier shows notifications to the user.
type Notifier interface {
	Notify(n Notification) error
}

// TabOpener opens a URL in a new browser tab.
type TabOpener interface {
	OpenTab(url string) error
}

// ClickRouter maps notification ids to destination URLs and routes
// clicks on the primary action. The mapping is in-memory only, so a
// restart loses it; clicks on unknown ids fall back to a generic
// destination.
type ClickRouter struct {
	mu       sync.Mutex
	targets  map[string]string
	fallback string
	tabs     TabOpener
}

func NewClickRouter(tabs TabOpener, fallbackURL string) *ClickRouter {
	return &ClickRouter{
		targets:  make(map[string]string),
		fallback: fallbackURL,
		tabs:     tabs,
	}
}

// Register associates a notification id with a destination URL.
func (r *ClickRouter) Register(notificationID, url string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.targets[notificationID] = url
}

// HandleClick opens the URL for the clicked notification, consuming
// the mapping. Unknown ids open the fallback destination.
func (r *ClickRouter) HandleClick(notificationID string) error {
	r.mu.Lock()
	url, ok := r.targets[notificationID]
	if ok {
		delete(r.targets, notificationID)
	} else {
		url = r.fallback
	}
	r.mu.Unlock()

	return r.tabs.OpenTab(url)
}
