package dataset

import "fmt"

// Справочники кодов классов туристического датасета. Значения — подписи, которые видит пользователь
// и по которым работают фильтры планировщика.

var attractionClasses = map[int]string{
	1: "文化類", 2: "生態類", 3: "文化資產類", 4: "宗教廟宇類", 5: "藝術類",
	6: "商圈商店類", 7: "國家公園類", 8: "國家風景區類", 9: "休閒農業類", 10: "溫泉類",
	11: "自然風景類", 12: "遊憩類", 13: "體育健身類", 14: "觀光工廠類", 15: "都會公園類",
	16: "森林遊樂區類", 17: "平地森林園區類", 18: "國家自然公園類", 19: "公園綠地類",
	20: "觀光遊樂業類", 21: "原住民文化類", 22: "客家文化類", 23: "交通場站類",
	24: "水域環境類", 25: "藝文場館類", 26: "生態場館類", 27: "娛樂場館類", 254: "其他",
}

var eventClasses = map[int]string{
	1: "節慶活動", 2: "藝文活動", 3: "年度活動", 4: "遊憩活動", 5: "地方社區型活動", 9: "其他活動",

	101: "節慶活動 - 傳統民俗型", 102: "節慶活動 - 宗教信仰型", 103: "節慶活動 - 原住民文化型",
	104: "節慶活動 - 客家文化型", 105: "節慶活動 - 藝文慶典活動", 106: "節慶活動 - 生態體驗型",
	107: "節慶活動 - 地方特產型", 108: "節慶活動 - 娛樂型活動", 109: "節慶活動 - 體育賽會活動",
	110: "節慶活動 - 商貿會展型",

	201: "藝文活動 - 音樂", 202: "藝文活動 - 戲劇", 203: "藝文活動 - 舞蹈", 204: "藝文活動 - 親子",
	205: "藝文活動 - 獨立音樂", 206: "藝文活動 - 展覽", 207: "藝文活動 - 講座", 208: "藝文活動 - 電影",
	209: "藝文活動 - 綜藝", 210: "藝文活動 - 競賽", 211: "藝文活動 - 徵選", 212: "藝文活動 - 演唱會",
	213: "藝文活動 - 研習課程", 214: "藝文活動 - 閱讀", 215: "藝文活動 - 其他藝文活動",
}

var hotelClasses = map[int]string{
	1: "國際觀光旅館", 2: "一般觀光旅館", 3: "一般旅館", 4: "民宿", 5: "露營區", 9: "其他",
}

var hotelStars = map[int]string{
	0: "無星級", 1: "1 星級", 2: "2 星級", 3: "3 星級", 4: "4 星級", 5: "5 星級", 6: "卓越 5 星級",
}

var cuisineClasses = map[int]string{
	1: "台灣小吃/台菜", 2: "中式料理", 3: "港式料理", 4: "日式料理", 5: "韓式料理",
	96: "南亞料理", 97: "東南亞料理", 98: "美式/歐式料理", 99: "其他異國料理",
	100: "夜市小吃", 101: "甜點冰品", 102: "麵包糕點", 103: "非酒精飲品", 104: "酒類飲品",
	105: "燒烤/鐵板燒", 106: "火鍋", 107: "海鮮", 108: "牛排", 109: "速食", 110: "連鎖餐飲",
	111: "吃到飽", 112: "便當/自助餐", 113: "牛肉麵", 114: "粥品", 115: "地方特產",
	116: "伴手禮/禮盒", 200: "純素飲食", 201: "素食飲食", 202: "清真飲食", 203: "無麩質飲食",
	204: "健康飲食", 254: "其他",
}

var restaurantFeatures = map[int]string{
	1: "素食餐廳", 2: "無障礙餐廳", 3: "寵物友善", 4: "兒童友善", 5: "性別友善", 6: "禁菸餐廳",
	7: "現場音樂表演", 8: "室外雅座", 9: "頂樓座位", 10: "餐桌服務", 99: "其他服務",
	101: "內用", 102: "外帶", 103: "外送", 104: "預訂", 105: "免下車服務", 106: "外燴",
	107: "團膳", 108: "路邊取貨", 109: "無接觸送餐服務",
	201: "米其林指南一星", 202: "米其林指南二星", 203: "米其林指南三星",
	204: "米其林指南必比登推薦", 205: "米其林綠星", 206: "穆斯林認證餐廳", 254: "其他",
}

const unknownHotelClass = "未知類型"

// classNames переводит коды в подписи. Неизвестный код сохраняется в подписи, чтобы его было видно.
func classNames(codes []int, table map[int]string) []string {
	if len(codes) == 0 {
		return nil
	}

	names := make([]string, 0, len(codes))
	for _, code := range codes {
		if name, ok := table[code]; ok {
			names = append(names, name)
			continue
		}
		names = append(names, fmt.Sprintf("未知代碼(%d)", code))
	}

	return names
}

func first(names []string) string {
	if len(names) == 0 {
		return ""
	}

	return names[0]
}
