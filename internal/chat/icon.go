package chat

// chatIcons は寄付IDから決定的に選ばれる絵文字の候補。
var chatIcons = []string{"🍏", "🍞", "🍳", "🍇", "🍉", "🫐", "🥕", "🍔"}

// IconFor は寄付IDのハッシュから表示用絵文字を決定的に選ぶ。
// ハッシュは h = h*31 + c を32bit符号付きで畳み込む（オーバーフローは仕様）。
func IconFor(donationID string) string {
	var h int32
	for _, c := range donationID {
		h = (h << 5) - h + c
	}
	if h < 0 {
		h = -h
	}
	return chatIcons[int(h)%len(chatIcons)]
}
