package utils

// DereferenceSeed は、int64のポインタを安全にデリファレンスします。
// ポインタがnilの場合は0を返します。
func DereferenceSeed(seed *int64) int64 {
	return SeedOrDefault(seed, 0)
}

// SeedOrDefault は seed が nil の場合に def を返します。
// Stable Diffusion WebUI のように -1 を「ランダム」として扱うバックエンド向けなのだ。
func SeedOrDefault(seed *int64, def int64) int64 {
	if seed == nil {
		return def
	}
	return *seed
}
