package radius

import "testing"

func TestListGetAllRemoveAll(t *testing.T) {
	list := List{
		NewText(IDUserName, "alice"),
		NewText(IDReplyMessage, "hello"),
		NewText(IDReplyMessage, "world"),
	}

	if got := list.Get(IDUserName).String(); got != "alice" {
		t.Fatalf("Get(UserName) = %q, want alice", got)
	}

	msgs := list.All(IDReplyMessage)
	if len(msgs) != 2 {
		t.Fatalf("All(ReplyMessage) len = %d, want 2", len(msgs))
	}

	trimmed := list.RemoveAll(IDReplyMessage)
	if len(trimmed) != 1 || trimmed[0].ID != IDUserName {
		t.Fatalf("RemoveAll(ReplyMessage) = %+v, want just UserName", trimmed)
	}
	if len(list) != 3 {
		t.Fatalf("RemoveAll mutated the receiver: len = %d", len(list))
	}
}

func TestIdentifierVendorSplit(t *testing.T) {
	id := NewIdentifier(9, 1)
	if id.Vendor() != 9 {
		t.Fatalf("Vendor() = %d, want 9", id.Vendor())
	}
	if id.Attr() != 1 {
		t.Fatalf("Attr() = %d, want 1", id.Attr())
	}
	if !id.IsVendorSpecific() {
		t.Fatal("IsVendorSpecific() = false, want true")
	}
	if IDUserName.IsVendorSpecific() {
		t.Fatal("standard attribute reported as vendor-specific")
	}
}
